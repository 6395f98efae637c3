package model

// Request payloads sent to the API. The validate tags are checked by
// internal/validation before any network call is made.

// StartLoginRequest asks the server to email a one-time password.
type StartLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyLoginRequest exchanges an emailed one-time password for tokens.
type VerifyLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,min=1"`
}

// RefreshTokenRequest exchanges a refresh token for a new token pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is returned by verify and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id,omitempty"`
}

// CreateBoardRequest creates a board.
type CreateBoardRequest struct {
	Name          string  `json:"name" validate:"required,min=1,max=255"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	BackgroundURL *string `json:"background_url,omitempty"`
}

// UpdateBoardRequest patches a board. Nil fields are left untouched.
type UpdateBoardRequest struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	BackgroundURL *string `json:"background_url,omitempty"`
}

// CreateColumnRequest creates a column on a board.
type CreateColumnRequest struct {
	Name            string  `json:"name" validate:"required,min=1,max=255"`
	Position        *int    `json:"position,omitempty" validate:"omitempty,gte=0"`
	BackgroundColor *string `json:"background_color,omitempty" validate:"omitempty,max=50"`
}

// UpdateColumnRequest patches a column. Nil fields are left untouched.
type UpdateColumnRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Position        *int    `json:"position,omitempty" validate:"omitempty,gte=0"`
	BackgroundColor *string `json:"background_color,omitempty" validate:"omitempty,max=50"`
}

// ColumnOrder is one entry of a reorder request.
type ColumnOrder struct {
	ID       string `json:"id" validate:"required"`
	Position int    `json:"position" validate:"gte=0"`
}

// ReorderColumnsRequest assigns new positions to a board's columns.
type ReorderColumnsRequest struct {
	ColumnOrders []ColumnOrder `json:"column_orders" validate:"required,dive"`
}

// CreateCardRequest creates a card in a column.
type CreateCardRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=255"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Position    Position `json:"position"`
	DueDate     *string  `json:"due_date,omitempty"`
	Labels      Labels   `json:"labels,omitempty"`
	Checklist   []string `json:"checklist,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// UpdateCardRequest patches a card. Setting ColumnID moves the card.
type UpdateCardRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	Position    *Position `json:"position,omitempty"`
	ColumnID    *string   `json:"column_id,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Labels      *Labels   `json:"labels,omitempty"`
	Checklist   *[]string `json:"checklist,omitempty"`
	Attachments *[]string `json:"attachments,omitempty"`
}

// UpdateUserRequest patches the current user's profile.
type UpdateUserRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}
