// Package profile loads the caller's identity record from a local JSON file.
// When no profile is available the engine degrades to anonymous capture and
// asks the user for their name on the first turn.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
)

// Profile is the preloaded identity record for a session.
type Profile struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	CustID           string `json:"custId"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Gender           string `json:"gender"`
	PracticeID       string `json:"practiceId"`
	PatientID        string `json:"patientId"`
	GuarID           string `json:"guarId"`
	Specialty        string `json:"specialty"`
	UserID           string `json:"userId"`
	RegistrationDate string `json:"registrationDate"`
	LastVisit        string `json:"lastVisit"`
	FirstVisit       string `json:"firstVisit"`
}

// Load reads a profile from path. A missing file, unparseable JSON, or a
// record without both firstName and lastName all yield (nil, nil): the
// profile is optional and its absence is not an error.
func Load(path string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("profile: read %s: %w", path, err)
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, nil
	}
	if p.FirstName == "" || p.LastName == "" {
		return nil, nil
	}
	return &p, nil
}

// Name returns the display name ("First Last").
func (p *Profile) Name() string {
	return p.FirstName + " " + p.LastName
}

// Fields flattens the profile into the session field map.
func (p *Profile) Fields() map[string]string {
	return map[string]string{
		"name":             p.Name(),
		"firstName":        p.FirstName,
		"lastName":         p.LastName,
		"custId":           p.CustID,
		"phone":            p.Phone,
		"email":            p.Email,
		"gender":           p.Gender,
		"practiceId":       p.PracticeID,
		"patientId":        p.PatientID,
		"guarId":           p.GuarID,
		"specialty":        p.Specialty,
		"userId":           p.UserID,
		"registrationDate": p.RegistrationDate,
		"lastVisit":        p.LastVisit,
		"firstVisit":       p.FirstVisit,
	}
}
