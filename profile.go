package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"pgregory.net/rand"
)

// DefaultProfileURL is the public random-person data source the reference
// deployment points at.
const DefaultProfileURL = "https://randomuser.me/api/"

// EnrichmentError reports that the profile source was unreachable or
// returned a payload missing required fields. A malformed birth date alone
// is not an enrichment error; it is silently repaired by CleanDate.
type EnrichmentError struct {
	Op  string
	Err error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("profile enrichment: %s: %v", e.Op, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// Profile is a randomized demographic profile for a registered shopper.
type Profile struct {
	Name        string
	DateOfBirth time.Time
	City        string
	Postcode    string
	Latitude    string
	Longitude   string
	Gender      string
	Phone       string
	Mobile      string
	Age         int
	Email       string
}

// Properties returns the profile as event/profile property keys.
func (p *Profile) Properties() map[string]any {
	return map[string]any{
		"Name":          p.Name,
		"Date of birth": p.DateOfBirth.Format("2006-01-02"),
		"City":          p.City,
		"Postcode":      p.Postcode,
		"Latitude":      p.Latitude,
		"Longitude":     p.Longitude,
		"Gender":        p.Gender,
		"Phone":         p.Phone,
		"Mobile":        p.Mobile,
		"Age":           p.Age,
		"Email":         p.Email,
	}
}

// ProfileFetcher is the narrow contract the visit engine needs from the
// enrichment collaborator.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context) (*Profile, error)
}

// ProfileClient fetches randomized person records over HTTP and normalizes
// them into Profiles.
type ProfileClient struct {
	url    string
	client *http.Client
}

func NewProfileClient(url string) *ProfileClient {
	return &ProfileClient{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// randomUserResponse matches the wire shape of the random-person source: one
// person record nested under "results". Postcode is a string or a number
// depending on the nationality of the generated person.
type randomUserResponse struct {
	Results []struct {
		Gender string `json:"gender"`
		Name   struct {
			First string `json:"first"`
			Last  string `json:"last"`
		} `json:"name"`
		Location struct {
			City        string      `json:"city"`
			Postcode    any         `json:"postcode"`
			Coordinates struct {
				Latitude  string `json:"latitude"`
				Longitude string `json:"longitude"`
			} `json:"coordinates"`
		} `json:"location"`
		Email string `json:"email"`
		Dob   struct {
			Date string `json:"date"`
		} `json:"dob"`
		Phone string `json:"phone"`
		Cell  string `json:"cell"`
	} `json:"results"`
}

// FetchProfile calls the external source once and normalizes the result.
func (c *ProfileClient) FetchProfile(ctx context.Context) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &EnrichmentError{Op: "build request", Err: err}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &EnrichmentError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &EnrichmentError{Op: "fetch", Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var payload randomUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &EnrichmentError{Op: "decode", Err: err}
	}
	if len(payload.Results) == 0 {
		return nil, &EnrichmentError{Op: "decode", Err: fmt.Errorf("payload has no results")}
	}
	person := payload.Results[0]
	if person.Name.First == "" || person.Name.Last == "" || person.Email == "" {
		return nil, &EnrichmentError{Op: "decode", Err: fmt.Errorf("person record missing required fields")}
	}

	dob := CleanDate(person.Dob.Date)
	// a Caser is not safe for concurrent use, so build one per fetch
	title := cases.Title(language.English)
	return &Profile{
		Name:        title.String(person.Name.First + " " + person.Name.Last),
		DateOfBirth: dob,
		City:        title.String(person.Location.City),
		Postcode:    fmt.Sprint(person.Location.Postcode),
		Latitude:    person.Location.Coordinates.Latitude,
		Longitude:   person.Location.Coordinates.Longitude,
		Gender:      person.Gender,
		Phone:       person.Phone,
		Mobile:      person.Cell,
		Age:         AgeOn(dob, time.Now()),
		Email:       person.Email,
	}, nil
}

// CleanDate parses a birth date string. The external source sends garbage in
// the dob field sometimes; anything that doesn't parse as a calendar date is
// replaced by a uniformly random date with year in [1950, 2000] and day in
// [1, 28], so month length never matters. It never fails.
func CleanDate(s string) time.Time {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	year := 1950 + rand.Intn(51)
	month := time.Month(1 + rand.Intn(12))
	day := 1 + rand.Intn(28)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AgeOn returns the age in whole years of someone born on dob as of the
// given day, counting a year only once the birthday has passed.
func AgeOn(dob, today time.Time) int {
	years := today.Year() - dob.Year()
	if today.Month() < dob.Month() ||
		(today.Month() == dob.Month() && today.Day() < dob.Day()) {
		years--
	}
	return years
}
