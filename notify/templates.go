package notify

import (
	"bytes"
	"fmt"
	"html/template"
	texttemplate "text/template"
	"time"

	"table-reservation-api/models"
)

const bookingConfirmedHTML = `<h2>Your table is confirmed</h2>
<p>Hi {{.Name}},</p>
<p>Your reservation #{{.ID}} for {{.NumberOfGuests}} guest(s) on {{.Date}} at {{.Time}} is confirmed.</p>
{{if .TableNumber}}<p>Table: {{deref .TableNumber}}</p>{{end}}
{{if .SpecialRequests}}<p>Special requests: {{.SpecialRequests}}</p>{{end}}
<p>Amount paid: {{printf "%.2f" .PaymentAmount}}</p>
<p>We look forward to seeing you.</p>`

const passwordResetHTML = `<h2>Reset your password</h2>
<p>Hi {{.Name}},</p>
<p>Use the link below to choose a new password. It expires in {{.ExpiresIn}}.</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>If you did not ask for this, ignore this email.</p>`

const otpText = `Your verification code is {{.Code}}. It expires in {{.ExpiresIn}}.`

var funcs = template.FuncMap{
	"deref": func(v *int) int {
		if v == nil {
			return 0
		}
		return *v
	},
}

var (
	bookingConfirmedTmpl = template.Must(template.New("booking_confirmed").Funcs(funcs).Parse(bookingConfirmedHTML))
	passwordResetTmpl    = template.Must(template.New("password_reset").Parse(passwordResetHTML))
	otpTmpl              = texttemplate.Must(texttemplate.New("otp").Parse(otpText))
)

func render(name string, execute func(*bytes.Buffer) error) (string, error) {
	var buf bytes.Buffer
	if err := execute(&buf); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// BookingConfirmedEmail renders the guest's confirmation message.
func BookingConfirmedEmail(booking *models.Booking) (Email, error) {
	body, err := render("booking_confirmed", func(buf *bytes.Buffer) error {
		return bookingConfirmedTmpl.Execute(buf, booking)
	})
	if err != nil {
		return Email{}, err
	}
	return Email{
		To:       booking.Email,
		Subject:  fmt.Sprintf("Booking #%d confirmed for %s at %s", booking.ID, booking.Date, booking.Time),
		HTMLBody: body,
	}, nil
}

// PasswordResetEmail renders the reset link message.
func PasswordResetEmail(to, name, link string, expiresIn time.Duration) (Email, error) {
	data := map[string]any{"Name": name, "Link": link, "ExpiresIn": expiresIn.String()}
	body, err := render("password_reset", func(buf *bytes.Buffer) error {
		return passwordResetTmpl.Execute(buf, data)
	})
	if err != nil {
		return Email{}, err
	}
	return Email{To: to, Subject: "Reset your password", HTMLBody: body}, nil
}

// OTPMessage renders the SMS body carrying a verification code.
func OTPMessage(code string, expiresIn time.Duration) (string, error) {
	data := map[string]any{"Code": code, "ExpiresIn": expiresIn.String()}
	return render("otp", func(buf *bytes.Buffer) error {
		return otpTmpl.Execute(buf, data)
	})
}
