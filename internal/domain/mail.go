package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type InvitationMailData struct {
	Email string `json:"email"`
	URL   string `json:"url"`
}

type ResetPasswordMailData struct {
	Email string `json:"email"`
	URL   string `json:"url"`
}
