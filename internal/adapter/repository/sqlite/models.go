package sqlite

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
)

type roomModel struct {
	ID               string  `gorm:"primaryKey;type:text"`
	OwnerID          string  `gorm:"not null;index"`
	Title            string  `gorm:"not null"`
	Location         string  `gorm:"not null"`
	Price            float64 `gorm:"not null;check:price >= 0"`
	PropertyType     string  `gorm:"not null"`
	TenantPreference string  `gorm:"not null"`
	ContactNumber    string  `gorm:"not null"`
	Description      string
	CreatedAt        time.Time `gorm:"index:rooms_created_at_idx"`
	UpdatedAt        time.Time
	Images           []roomImageModel `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

func (roomModel) TableName() string { return "rooms" }

type roomImageModel struct {
	ID        string `gorm:"primaryKey;type:text"`
	RoomID    string `gorm:"not null;index"`
	ImageURL  string `gorm:"not null;uniqueIndex"`
	ObjectKey string `gorm:"not null"`
	Position  int    `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (roomImageModel) TableName() string { return "room_images" }

func fromDomainListing(l *domain.Listing) roomModel {
	return roomModel{
		ID:               l.ID,
		OwnerID:          l.OwnerID,
		Title:            l.Title,
		Location:         l.Location,
		Price:            l.Price,
		PropertyType:     string(l.PropertyType),
		TenantPreference: string(l.TenantPreference),
		ContactNumber:    l.ContactNumber,
		Description:      l.Description,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

func (m roomModel) toDomain() *domain.Listing {
	l := &domain.Listing{
		ID:               m.ID,
		OwnerID:          m.OwnerID,
		Title:            m.Title,
		Location:         m.Location,
		Price:            m.Price,
		PropertyType:     domain.PropertyType(m.PropertyType),
		TenantPreference: domain.TenantPreference(m.TenantPreference),
		ContactNumber:    m.ContactNumber,
		Description:      m.Description,
		Photos:           make([]domain.Photo, len(m.Images)),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	for i, img := range m.Images {
		l.Photos[i] = img.toDomain()
	}
	return l
}

func (m roomImageModel) toDomain() domain.Photo {
	return domain.Photo{
		ID:        m.ID,
		ListingID: m.RoomID,
		URL:       m.ImageURL,
		ObjectKey: m.ObjectKey,
		CreatedAt: m.CreatedAt,
	}
}
