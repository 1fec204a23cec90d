package errors

var (
	AuthenticationRequired = Unauthorized("Authentication credentials were not provided.")
	InvalidToken           = Unauthorized("Invalid token.")
	ExpiredToken           = Unauthorized("Token has expired.")
	InvalidTokenType       = Unauthorized("Invalid token type.")
	InvalidRefreshToken    = Unauthorized("Invalid refresh token.")
	JWTSecretNotConfigured = InternalServerError(nil, "JWT secret not configured")
	PermissionDenied       = Forbidden("You do not have permission to perform this action.")

	UserNotFound        = NotFound("User not found")
	UserNotActive       = Forbidden("User is not active")
	InvalidOrExpiredOTP = Validation("Invalid or expired OTP")
	OTPAlreadySent      = RateLimited("OTP has already been send")
	ActiveOTPExists     = RateLimited("User has already an active OTP")

	EmailInUse = Conflict("Email already in use")
	PhoneInUse = Conflict("Phone number already in use")

	ErrSomethingWentWrong = InternalServerError(nil, "Internal server error")
)
