package transport

type AuthLoginRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	TTL      int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}

type TaskRequest struct {
	ID          string `json:"id"`
	CategoryID  string `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

type TaskOrderRequest struct {
	Orders []TaskOrderEntry `json:"orders"`
}

type TaskOrderEntry struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

type StartTaskRequest struct {
	EstimatedMinutes int `json:"estimated_minutes"`
}

type FriendRequestPayload struct {
	UserID string `json:"user_id"`
}
