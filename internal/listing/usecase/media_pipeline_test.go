package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaPipeline_ObjectKeyIsUniqueUnderFrozenClock(t *testing.T) {
	p := NewMediaPipeline(newFakeStorage(), nil, nil, logger.NewNop())
	frozen := time.Unix(1700000000, 0)
	p.now = func() time.Time { return frozen }

	k1 := p.ObjectKey("room-1", "a.jpg")
	k2 := p.ObjectKey("room-1", "a.jpg")

	assert.NotEqual(t, k1, k2)
	assert.True(t, strings.HasPrefix(k1, "room-1/"))
	assert.True(t, strings.HasSuffix(k1, "-a.jpg"))
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":              "photo.jpg",
		"../../etc/passwd":       "passwd",
		`C:\Users\me\window.png`: "window.png",
		"":                       "file",
		"..":                     "file",
		"bad\x00name.jpg":        "bad_name.jpg",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeFileName(in), "input %q", in)
	}
}

func TestMediaPipeline_Upload_FailFast(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage("b.jpg")
	journal := newFakeJournal()
	p := NewMediaPipeline(storage, journal, nil, logger.NewNop())

	report, err := p.Upload(ctx, "room-1", files("a.jpg", "b.jpg", "c.jpg"), domain.FailFast)

	require.Error(t, err)
	var owe *domain.ObjectWriteError
	require.True(t, errors.As(err, &owe))
	assert.Equal(t, "b.jpg", owe.FileName)
	assert.Equal(t, 2, owe.Position)
	assert.Equal(t, 3, owe.Total)
	assert.Contains(t, err.Error(), "upload of file 2 of 3")

	require.Len(t, report.Uploaded, 1)
	assert.Equal(t, "a.jpg", report.Uploaded[0].FileName)
	assert.Len(t, storage.puts, 2, "the third file must never be attempted")
	assert.Equal(t, 1, storage.count())

	assert.Equal(t, domain.UploadPending, journal.state(report.Uploaded[0].ObjectKey))
	assert.Equal(t, domain.UploadOrphaned, journal.state(storage.puts[1]))
}

func TestMediaPipeline_Upload_ContinueOnError(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage("b.jpg")
	p := NewMediaPipeline(storage, newFakeJournal(), nil, logger.NewNop())

	report, err := p.Upload(ctx, "room-1", files("a.jpg", "b.jpg", "c.jpg"), domain.ContinueOnError)

	require.NoError(t, err)
	require.Len(t, report.Uploaded, 2)
	assert.Equal(t, "a.jpg", report.Uploaded[0].FileName)
	assert.Equal(t, "c.jpg", report.Uploaded[1].FileName)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 2, report.Failures[0].Position)

	for _, u := range report.Uploaded {
		assert.True(t, storage.has(u.ObjectKey))
		assert.Equal(t, storage.PublicURL(u.ObjectKey), u.PublicURL)
	}
	assert.Equal(t, report.Keys()[0], report.Uploaded[0].ObjectKey)
	assert.Equal(t, report.URLs()[1], report.Uploaded[1].PublicURL)
}

func TestMediaPipeline_Upload_WithoutJournal(t *testing.T) {
	p := NewMediaPipeline(newFakeStorage(), nil, nil, logger.NewNop())
	report, err := p.Upload(context.Background(), "room-1", files("a.jpg"), domain.FailFast)
	require.NoError(t, err)
	assert.Len(t, report.Uploaded, 1)

	p.MarkCommitted(context.Background(), report.Keys())
}

func TestMediaPipeline_RemoveObjects(t *testing.T) {
	ctx := context.Background()
	storage := newFakeStorage()
	journal := newFakeJournal()
	p := NewMediaPipeline(storage, journal, nil, logger.NewNop())

	report, err := p.Upload(ctx, "room-1", files("a.jpg", "b.jpg"), domain.FailFast)
	require.NoError(t, err)
	p.MarkCommitted(ctx, report.Keys())

	keyA, keyB := report.Uploaded[0].ObjectKey, report.Uploaded[1].ObjectKey
	storage.failRemove[keyB] = true

	warnings := p.RemoveObjects(ctx, []domain.Photo{
		{ID: "p1", ObjectKey: keyA},
		{ID: "p2", ObjectKey: keyB},
		{ID: "p3"},
	})

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Error(), keyB)
	assert.False(t, storage.has(keyA))
	assert.True(t, storage.has(keyB))
	assert.Equal(t, domain.UploadPurged, journal.state(keyA))
	assert.Equal(t, domain.UploadOrphaned, journal.state(keyB))
}
