package token

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// accountClaims is the claim set shared by every service that trusts the
// signing key: sub, email, fullName and one "role" entry per role.
type accountClaims struct {
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Roles    roleList `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// roleList encodes a single role as a plain string and several as an
// array, and accepts both forms when decoding.
type roleList []string

func (r roleList) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]string(r))
}

func (r *roleList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*r = roleList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*r = many
	return nil
}
