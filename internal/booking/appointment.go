// Package booking holds the appointment model coming back from the
// Bookings API and the selection logic that reduces a day's appointments
// to the single booking worth displaying.
package booking

import "encoding/json"

// DateTimeField is a Bookings timestamp field. The API returns either a
// bare string or an object like {"dateTime": "...", "timeZone": "UTC"};
// both shapes decode into the same struct so the rest of the code sees one
// canonical form.
type DateTimeField struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

func (f *DateTimeField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.DateTime = s
		f.TimeZone = ""
		return nil
	}

	type plain DateTimeField
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = DateTimeField(p)
	return nil
}

// Appointment is a single Bookings appointment as returned by the API.
// Read-only; this service never writes appointments.
type Appointment struct {
	ID            string        `json:"id,omitempty"`
	DisplayName   string        `json:"displayName,omitempty"`
	CustomerName  string        `json:"customerName,omitempty"`
	ServiceName   string        `json:"serviceName,omitempty"`
	StartDateTime DateTimeField `json:"startDateTime"`
	EndDateTime   DateTimeField `json:"endDateTime"`
}

// Title synthesizes the display title, substituting placeholders for
// missing customer or service names.
func (a Appointment) Title() string {
	customer := a.CustomerName
	if customer == "" {
		customer = "Unknown Customer"
	}
	service := a.ServiceName
	if service == "" {
		service = "Booking"
	}
	return customer + " - " + service
}
