package auth

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	SubjectID int64  `json:"subject_id"`
	Name      string `json:"name,omitempty"`
}
