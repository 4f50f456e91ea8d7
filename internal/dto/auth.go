package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求；role 决定登录后补齐的身分资料
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"     binding:"required,oneof=teacher student"`
}

// DemoLoginRequest 演示免密登录
type DemoLoginRequest struct {
	As string `form:"as" binding:"omitempty,oneof=teacher student"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}
