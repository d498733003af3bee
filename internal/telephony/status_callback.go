package telephony

import "net/http"

// StatusCallbackForm captures the subset of Exotel terminal status
// callback fields worth logging. Exotel posts
// application/x-www-form-urlencoded.
//
// Business state never changes on these callbacks; the call lifecycle is
// driven by the voice-AI completion webhook.
type StatusCallbackForm struct {
	CallSid     string
	EventType   string
	Status      string
	From        string
	To          string
	Direction   string
	DateUpdated string
}

func ParseStatusCallback(r *http.Request) (StatusCallbackForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusCallbackForm{}, err
	}
	return StatusCallbackForm{
		CallSid:     r.PostFormValue("CallSid"),
		EventType:   r.PostFormValue("EventType"),
		Status:      r.PostFormValue("Status"),
		From:        r.PostFormValue("From"),
		To:          r.PostFormValue("To"),
		Direction:   r.PostFormValue("Direction"),
		DateUpdated: r.PostFormValue("DateUpdated"),
	}, nil
}
