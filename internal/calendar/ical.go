// Package calendar renders the session marker index as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"

	"github.com/example/volunteer-scheduler/internal/application"
)

// ProductID identifies feeds produced by this service.
const ProductID = "-//volunteer-scheduler//sessions//EN"

// propColor is the RFC 7986 COLOR property.
const propColor = "COLOR"

// Build converts the marker index into a calendar with one all-day event per date.
// Markers whose date is not YYYY-MM-DD are logged and left out of the calendar.
func Build(index application.MarkerIndex, stamp time.Time, logger *slog.Logger) *ical.Calendar {
	if logger == nil {
		logger = slog.Default()
	}
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for _, date := range index.Dates() {
		marker := index[date]
		event, err := markerEvent(date, marker, stamp)
		if err != nil {
			logger.Warn("skipping marker with unparseable date",
				"component", "calendar",
				"date", date,
				"session_id", marker.Session.ID,
				"error", err,
			)
			continue
		}
		cal.Children = append(cal.Children, event)
	}
	return cal
}

// Encode writes the marker index to w in iCalendar format.
func Encode(w io.Writer, index application.MarkerIndex, stamp time.Time, logger *slog.Logger) error {
	cal := Build(index, stamp, logger)
	if len(cal.Children) == 0 {
		// go-ical refuses to encode a calendar without components.
		return encodeEmpty(w)
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("calendar: encode: %w", err)
	}
	return nil
}

func markerEvent(date string, marker application.Marker, stamp time.Time) (*ical.Component, error) {
	day, err := time.Parse(application.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("calendar: marker date %q: %w", date, err)
	}

	uid := marker.Session.ID
	if uid == "" {
		uid = date
	}

	event := ical.NewComponent(ical.CompEvent)
	event.Props.SetText(ical.PropUID, uid+"@volunteer-scheduler")
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDate(ical.PropDateTimeStart, day)
	event.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))
	event.Props.SetText(ical.PropSummary, application.LabelFor(marker.SessionType))
	event.Props.SetText(ical.PropCategories, string(marker.SessionType))
	if marker.Color != "" {
		event.Props.SetText(propColor, string(marker.Color))
	}
	if marker.Session.Description != "" {
		event.Props.SetText(ical.PropDescription, marker.Session.Description)
	}
	return event, nil
}

func encodeEmpty(w io.Writer) error {
	_, err := fmt.Fprintf(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:%s\r\nEND:VCALENDAR\r\n", ProductID)
	if err != nil {
		return fmt.Errorf("calendar: encode: %w", err)
	}
	return nil
}
