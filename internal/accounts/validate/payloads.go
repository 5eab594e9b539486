package validate

import "github.com/aussiebroadwan/accounts/internal/accounts/domain"

const (
	// MsgPasswordsMismatch is the single message for any invalid password
	// change or reset payload.
	MsgPasswordsMismatch = "Please make sure the passwords match"

	// MsgEmptyProfileUpdate rejects a profile update that changes nothing.
	MsgEmptyProfileUpdate = "Please provide at least one profile field to update"
)

// Signup is the POST /signup body.
type Signup struct {
	FirstName string `json:"firstName" validate:"required,min=3,max=25" label:"Please enter a valid firstname \n the field must not be empty and it must be more than 2 letters"`
	LastName  string `json:"lastName" validate:"required,min=3,max=25" label:"Please enter a valid lastname \n the field must not be empty and it must be more than 2 letters"`
	Email     string `json:"email" validate:"required,email" label:"Please enter a valid email address"`
	Password  string `json:"password" validate:"required,password" label:"Password is required. \n It should be more than 8 characters, and should include at least a capital letter, and a number"`
}

// Login is the POST /login body.
type Login struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required,min=3,max=50" label:"incorrect username or email"`
	Password        string `json:"password" validate:"required,password" label:"incorrect password or email"`
}

// PasswordChange is the POST /reset-password body for a signed-in user.
type PasswordChange struct {
	OldPassword     string `json:"oldPassword" validate:"required" label:"Please make sure the passwords match"`
	NewPassword     string `json:"newPassword" validate:"required,password" label:"Please make sure the passwords match"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword" label:"Please make sure the passwords match"`
}

// PasswordResetRequest is the POST /reset-password body asking for a link.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email" label:"Please enter a valid email address"`
}

// PasswordResetConfirm is the POST /reset-password/confirm body.
type PasswordResetConfirm struct {
	Token           string `json:"token" validate:"required" label:"The token provided was invalid"`
	NewPassword     string `json:"newPassword" validate:"required,password" label:"Please make sure the passwords match"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword" label:"Please make sure the passwords match"`
}

// ProfileUpdate is the PUT /profile body. Absent fields are left as they are.
type ProfileUpdate struct {
	FirstName    *string `json:"firstName,omitempty" validate:"omitnil,min=3,max=25" label:"Please enter a valid firstname \n the field must not be empty and it must be more than 2 letters"`
	LastName     *string `json:"lastName,omitempty" validate:"omitnil,min=3,max=25" label:"Please enter a valid lastName \n the field must not be empty and it must be more than 2 letters"`
	UserName     *string `json:"userName,omitempty" validate:"omitnil,min=3,max=30,username" label:"Please enter a valid username \n 3 to 30 letters, digits, dots or underscores"`
	Gender       *string `json:"gender,omitempty" validate:"omitnil,oneof=male female" label:"please input a gender (male or female)"`
	BirthDate    *string `json:"birthDate,omitempty" validate:"omitnil,datetime=2006-01-02" label:"Please input a valid date format: yy-mm-dd"`
	PhoneNumber  *string `json:"phoneNumber,omitempty" validate:"omitnil,phone" label:"Please input a valid phone number"`
	ProfileImage *string `json:"profileImage,omitempty" validate:"omitnil,url" label:"Please profileImage must be in form of an image URL"`
}

// Changes maps the payload onto a store update.
func (p ProfileUpdate) Changes() domain.UserChanges {
	return domain.UserChanges{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		UserName:     p.UserName,
		Gender:       p.Gender,
		BirthDate:    p.BirthDate,
		PhoneNumber:  p.PhoneNumber,
		ProfileImage: p.ProfileImage,
	}
}

// Profile validates p and also rejects an update with no fields.
func Profile(p *ProfileUpdate) error {
	if err := Struct(p); err != nil {
		return err
	}
	if p.Changes().IsEmpty() {
		return &Error{Rule: "required", Message: MsgEmptyProfileUpdate}
	}
	return nil
}
