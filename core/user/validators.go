package user

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/coastwrpt/wrpt/core"
)

var (
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^\w+$`)

	staffXorSchoolTag  = "staffxorschool"
	staffXorSchoolText = "a user must be either staff or bound to a school, but not both"

	hidePwdLinkTag  = "hidepwdlink"
	hidePwdLinkText = "only school users can hide the change password link"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to the username"
)

// InitValidators registers the user validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	core.RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	validate.RegisterStructValidation(userStructValidation, NewUser{}, ChangePassword{})
	core.RegisterCustomTranslation(validate, translator, staffXorSchoolTag, staffXorSchoolText)
	core.RegisterCustomTranslation(validate, translator, hidePwdLinkTag, hidePwdLinkText)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// userStructValidation does struct level validation on NewUser and ChangePassword structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		if usr.IsStaff == usr.SchoolID.Valid {
			sl.ReportError(usr.SchoolID, "school_id", "SchoolID", staffXorSchoolTag, "")
		}
		if usr.IsStaff && usr.HideChangePasswordLink {
			sl.ReportError(usr.HideChangePasswordLink, "hide_change_password_link", "HideChangePasswordLink", hidePwdLinkTag, "")
		}
		validatePassword(usr.Password, usr.Username, sl)
	case ChangePassword:
		validatePassword(usr.Password, "", sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no username similarity
func validatePassword(pwd, uname string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	if uname != "" {
		ratio := difflib.NewMatcher(strings.Split(strings.ToLower(pwd), ""), strings.Split(uname, "")).QuickRatio()
		if ratio >= pwdMaxSim {
			reportErr(pwdAttrSimTag)
		}
	}
}
