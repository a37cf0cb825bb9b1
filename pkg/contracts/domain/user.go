package domain

// User represents a row from users.csv. UserID is unique; the loader
// rejects files with duplicate user identifiers.
type User struct {
	UserID     string `json:"user_id" csv:"user_id"`
	Country    string `json:"country" csv:"country"`
	SignupDate string `json:"signup_date" csv:"signup_date"`
}
