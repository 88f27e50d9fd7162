package application

import (
	"time"

	"github.com/example/volunteer-scheduler/internal/persistence"
)

// Persisted field names. They match the documents written by the mobile client.
const (
	fieldDate        = "date"
	fieldSessionType = "sessionType"
	fieldDescription = "description"

	fieldSessionID = "sessionId"
	fieldBookedAt  = "bookedAt"
	fieldUserID    = "userId"
	fieldUserName  = "userName"
	fieldUserEmail = "userEmail"

	fieldName         = "name"
	fieldEmail        = "email"
	fieldPasswordHash = "passwordHash"
	fieldCreatedAt    = "createdAt"

	fieldPhone            = "phone"
	fieldSport            = "sport"
	fieldAdditionalSports = "additionalSports"
	fieldUserType         = "userType"
)

func sessionFromDocument(doc persistence.Document) Session {
	return Session{
		ID:          doc.ID,
		Date:        doc.Get(fieldDate),
		Type:        SessionType(doc.Get(fieldSessionType)),
		Description: doc.Get(fieldDescription),
	}
}

func sessionFields(s Session) persistence.Fields {
	fields := persistence.Fields{
		fieldDate:        s.Date,
		fieldSessionType: string(s.Type),
	}
	if s.Description != "" {
		fields[fieldDescription] = s.Description
	}
	return fields
}

func bookingFromDocument(doc persistence.Document) Booking {
	bookedAt, _ := time.Parse(time.RFC3339Nano, doc.Get(fieldBookedAt))
	return Booking{
		ID:          doc.ID,
		SessionID:   doc.Get(fieldSessionID),
		SessionType: SessionType(doc.Get(fieldSessionType)),
		Date:        doc.Get(fieldDate),
		Description: doc.Get(fieldDescription),
		BookedAt:    bookedAt,
		UserID:      doc.Get(fieldUserID),
		UserName:    doc.Get(fieldUserName),
		UserEmail:   doc.Get(fieldUserEmail),
	}
}

func bookingFields(b Booking) persistence.Fields {
	return persistence.Fields{
		fieldSessionID:   b.SessionID,
		fieldSessionType: string(b.SessionType),
		fieldDate:        b.Date,
		fieldDescription: b.Description,
		fieldBookedAt:    b.BookedAt.UTC().Format(time.RFC3339Nano),
		fieldUserID:      b.UserID,
		fieldUserName:    b.UserName,
		fieldUserEmail:   b.UserEmail,
	}
}

func userFromDocument(doc persistence.Document) User {
	createdAt, _ := time.Parse(time.RFC3339Nano, doc.Get(fieldCreatedAt))
	return User{
		ID:           doc.ID,
		Name:         doc.Get(fieldName),
		Email:        doc.Get(fieldEmail),
		PasswordHash: doc.Get(fieldPasswordHash),
		CreatedAt:    createdAt,
		Profile: Profile{
			Phone:            doc.Get(fieldPhone),
			Sport:            doc.Get(fieldSport),
			AdditionalSports: doc.Get(fieldAdditionalSports),
			UserType:         doc.Get(fieldUserType),
		},
	}
}

func userFields(u User) persistence.Fields {
	fields := persistence.Fields{
		fieldName:         u.Name,
		fieldEmail:        u.Email,
		fieldPasswordHash: u.PasswordHash,
		fieldCreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339Nano),
		fieldUserType:     u.UserType,
	}
	for key, value := range map[string]string{
		fieldPhone:            u.Phone,
		fieldSport:            u.Sport,
		fieldAdditionalSports: u.AdditionalSports,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
