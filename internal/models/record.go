package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// State wraps the lane ordinal used by the remote task service.
type State struct {
	ID int `json:"id"`
}

// UserToken scopes a task collection on the remote service. It is written as
// {"token": n} but also read from a bare number.
type UserToken struct {
	Token int64 `json:"token"`
}

// UnmarshalJSON accepts both {"token": n} and n.
func (u *UserToken) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] != '{' {
		n, err := strconv.ParseInt(strings.Trim(string(data), `"`), 10, 64)
		if err != nil {
			return errors.New("userToken must be a number or an object")
		}
		u.Token = n
		return nil
	}
	var obj struct {
		Token int64 `json:"token"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	u.Token = obj.Token
	return nil
}

// Record is a task as the remote task service stores and transmits it.
type Record struct {
	Index        int64     `json:"index"`
	Title        string    `json:"title"`
	Desc         string    `json:"desc"`
	Priority     int       `json:"priority"`
	State        State     `json:"state"`
	Deleted      bool      `json:"deleted"`
	UserToken    UserToken `json:"userToken"`
	TszImplement *string   `json:"tszImplement,omitempty"`
}

// Validate checks the fields the remote service requires on write.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}

	if r.Priority < 1 || r.Priority > 3 {
		return errors.New("priority must be between 1 and 3")
	}

	if r.State.ID < 1 || r.State.ID > 3 {
		return errors.New("state.id must be between 1 and 3")
	}

	if r.UserToken.Token == 0 {
		return errors.New("userToken is required")
	}

	return nil
}
