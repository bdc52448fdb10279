package provider

// Wire types for the remote calendar REST protocol. List responses wrap
// their items in a "value" array and carry an "@odata.nextLink" URL when
// more pages follow.

// EmailAddress is the provider's name/address pair.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
}

// Recipient wraps an EmailAddress, as the provider does for organizer
// and attendee records.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// ResponseStatus carries an attendee's response to an invitation.
type ResponseStatus struct {
	Response string `json:"response,omitempty"`
	Time     string `json:"time,omitempty"`
}

// Attendee is a meeting participant as returned by the provider.
type Attendee struct {
	EmailAddress EmailAddress    `json:"emailAddress"`
	Type         string          `json:"type,omitempty"`
	Status       *ResponseStatus `json:"status,omitempty"`
}

// ItemBody is the description payload of an event.
type ItemBody struct {
	ContentType string `json:"contentType,omitempty"`
	Content     string `json:"content,omitempty"`
}

// DateTimeZone pairs a wall-clock timestamp with the zone it is
// expressed in.
type DateTimeZone struct {
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Location is the display portion of an event location.
type Location struct {
	DisplayName string `json:"displayName,omitempty"`
}

// Event is the provider's event representation.
type Event struct {
	ID                   string        `json:"id,omitempty"`
	Subject              string        `json:"subject,omitempty"`
	Body                 *ItemBody     `json:"body,omitempty"`
	BodyPreview          string        `json:"bodyPreview,omitempty"`
	Start                *DateTimeZone `json:"start,omitempty"`
	End                  *DateTimeZone `json:"end,omitempty"`
	Location             *Location     `json:"location,omitempty"`
	Organizer            *Recipient    `json:"organizer,omitempty"`
	Attendees            []Attendee    `json:"attendees,omitempty"`
	IsAllDay             bool          `json:"isAllDay,omitempty"`
	CreatedDateTime      string        `json:"createdDateTime,omitempty"`
	LastModifiedDateTime string        `json:"lastModifiedDateTime,omitempty"`
}

// EventPayload is the shape sent on event create and update. Pointer fields
// are omitted entirely when unset so a partial update never overwrites
// remote values with defaults.
type EventPayload struct {
	Subject  string        `json:"subject,omitempty"`
	Body     *ItemBody     `json:"body,omitempty"`
	Start    *DateTimeZone `json:"start,omitempty"`
	End      *DateTimeZone `json:"end,omitempty"`
	Location *Location     `json:"location,omitempty"`
	IsAllDay *bool         `json:"isAllDay,omitempty"`
}

// EventsPage is one page of an event listing.
type EventsPage struct {
	Value    []Event `json:"value"`
	NextLink string  `json:"@odata.nextLink,omitempty"`
}

// CalendarGroup is a named grouping of calendars.
type CalendarGroup struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	ChangeKey string `json:"changeKey,omitempty"`
	ClassID   string `json:"classId,omitempty"`
}

// Calendar is a single addressable calendar. Events are always created and
// fetched against a specific calendar id.
type Calendar struct {
	ID          string        `json:"id,omitempty"`
	Name        string        `json:"name,omitempty"`
	Color       string        `json:"color,omitempty"`
	ChangeKey   string        `json:"changeKey,omitempty"`
	CanEdit     bool          `json:"canEdit,omitempty"`
	IsRemovable bool          `json:"isRemovable,omitempty"`
	Owner       *EmailAddress `json:"owner,omitempty"`
}

// CalendarGroupsPage is the listing response for calendar groups.
type CalendarGroupsPage struct {
	Value []CalendarGroup `json:"value"`
}

// CalendarsPage is the listing response for calendars.
type CalendarsPage struct {
	Value []Calendar `json:"value"`
}
