package domain

import "time"

// BirthDateLayout is the storage layout used for birth dates.
const BirthDateLayout = "2006-01-02"

// DisplayDateLayout is the layout users type and read dates in.
const DisplayDateLayout = "02.01.2006"

// User is a registered requester.
type User struct {
	ID        int64     `db:"user_id"`
	FullName  string    `db:"full_name"`
	BirthDate time.Time `db:"-"`
	Phone     string    `db:"phone_number"`
}

// UserSummary is the projection used by the admin users browser.
type UserSummary struct {
	ID       int64  `db:"user_id"`
	FullName string `db:"full_name"`
}

// Request is a completed submission. It is never mutated after insert.
type Request struct {
	ID         int64
	UserID     int64
	Type       RequestType
	Screenshot string
	Options    OptionSet
	CreatedAt  time.Time
}

// HasScreenshot reports whether the request carries an attached photo reference.
func (r Request) HasScreenshot() bool {
	return r.Screenshot != ""
}
