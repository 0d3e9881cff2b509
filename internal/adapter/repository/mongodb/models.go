package mongodb

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
)

// uploadDocument is one journal entry. The object key is the document id.
type uploadDocument struct {
	ObjectKey string    `bson:"_id"`
	ListingID string    `bson:"listing_id"`
	FileName  string    `bson:"file_name"`
	PublicURL string    `bson:"public_url"`
	State     string    `bson:"state"`
	Reason    string    `bson:"reason,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func fromDomainUpload(rec domain.UploadRecord) uploadDocument {
	return uploadDocument{
		ObjectKey: rec.ObjectKey,
		ListingID: rec.ListingID,
		FileName:  rec.FileName,
		PublicURL: rec.PublicURL,
		State:     string(rec.State),
		Reason:    rec.Reason,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func (d uploadDocument) toDomain() domain.UploadRecord {
	return domain.UploadRecord{
		ObjectKey: d.ObjectKey,
		ListingID: d.ListingID,
		FileName:  d.FileName,
		PublicURL: d.PublicURL,
		State:     domain.UploadState(d.State),
		Reason:    d.Reason,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
