// Package ics renders calendars as iCalendar (RFC 5545) documents.
package ics

import (
	"bytes"
	"fmt"
	"time"

	"github.com/agenda-distribuida/calendar-service/internal/models"
	"github.com/emersion/go-ical"
)

const productID = "-//agenda-distribuida//calendar-service//EN"

// Encode writes one VEVENT per event under a VCALENDAR named after calendar.
func Encode(calendar *models.Calendar, events []*models.Event, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropName, calendar.Name)

	cal.Children = append(cal.Children, utcTimezone())

	stamp := now.UTC()
	for _, e := range events {
		cal.Children = append(cal.Children, toVEvent(e, stamp).Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// utcTimezone declares UTC. Event times are written in UTC, and the encoder
// rejects a VCALENDAR without components.
func utcTimezone() *ical.Component {
	standard := ical.NewComponent(ical.CompTimezoneStandard)
	setRaw(standard.Props, ical.PropDateTimeStart, "19700101T000000")
	setRaw(standard.Props, ical.PropTimezoneOffsetFrom, "+0000")
	setRaw(standard.Props, ical.PropTimezoneOffsetTo, "+0000")

	tz := ical.NewComponent(ical.CompTimezone)
	tz.Props.SetText(ical.PropTimezoneID, "UTC")
	tz.Children = append(tz.Children, standard)
	return tz
}

// setRaw stores value with the property's default value type.
func setRaw(props ical.Props, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	props.Set(prop)
}

func toVEvent(e *models.Event, stamp time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, e.ID.String())
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	event.Props.SetDateTime(ical.PropDateTimeStart, e.StartTime.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, e.EndTime.UTC())
	event.Props.SetText(ical.PropSummary, e.Name)
	if e.Description != "" {
		event.Props.SetText(ical.PropDescription, e.Description)
	}
	if e.Location != "" {
		event.Props.SetText(ical.PropLocation, e.Location)
	}
	if e.Type != "" {
		event.Props.SetText(ical.PropCategories, e.Type)
	}
	event.Props.SetText(ical.PropClass, classOf(e.Visibility))
	return event
}

func classOf(v models.Visibility) string {
	switch v {
	case models.VisibilityPublic:
		return "PUBLIC"
	case models.VisibilityPrivate:
		return "PRIVATE"
	default:
		return "PRIVATE"
	}
}
