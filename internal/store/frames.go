package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

const frameColumns = `seq, id, sample_id, filename, data, is_mosaic, tag, created_at`

// AddRawFrame stores a raw sub-image for a sample.
func (s *Store) AddRawFrame(ctx context.Context, sampleID, filename string, data []byte) (*Frame, error) {
	f := &Frame{
		ID:        newID(),
		SampleID:  sampleID,
		Filename:  filepath.Base(filename),
		Data:      data,
		CreatedAt: s.now(),
	}
	if err := s.insert(ctx, f); err != nil {
		return nil, fmt.Errorf("store: add raw frame: %w", err)
	}
	return f, nil
}

// PublishDerived stores a derived mosaic for a sample. The entry is flagged
// as a mosaic and named "<sampleID>_<tag>.jpg". It returns the new frame id.
func (s *Store) PublishDerived(ctx context.Context, sampleID string, data []byte, tag string) (string, error) {
	f := &Frame{
		ID:        newID(),
		SampleID:  sampleID,
		Filename:  fmt.Sprintf("%s_%s.jpg", sampleID, tag),
		Data:      data,
		IsMosaic:  true,
		Tag:       tag,
		CreatedAt: s.now(),
	}
	if err := s.insert(ctx, f); err != nil {
		return "", fmt.Errorf("store: publish derived: %w", err)
	}
	return f.ID, nil
}

func (s *Store) insert(ctx context.Context, f *Frame) error {
	if f.SampleID == "" {
		return errors.New("empty sample id")
	}
	if len(f.Data) == 0 {
		return errors.New("empty image data")
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO sample_images (id, sample_id, filename, data, is_mosaic, tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.SampleID, f.Filename, f.Data, boolToInt(f.IsMosaic), f.Tag, f.CreatedAt.UnixMilli())
	if err != nil {
		return err
	}
	f.Seq, err = res.LastInsertId()
	return err
}

// ListRawFrames returns the raw sub-images of a sample in ingestion order,
// excluding derived mosaics.
func (s *Store) ListRawFrames(ctx context.Context, sampleID string) ([]Frame, error) {
	frames, err := s.query(ctx, `
		SELECT `+frameColumns+` FROM sample_images
		WHERE sample_id = ? AND is_mosaic = 0
		ORDER BY seq ASC`, sampleID)
	if err != nil {
		return nil, fmt.Errorf("store: list raw frames: %w", err)
	}
	return frames, nil
}

// ListDerived returns the mosaics published for a sample, oldest first.
func (s *Store) ListDerived(ctx context.Context, sampleID string) ([]Frame, error) {
	frames, err := s.query(ctx, `
		SELECT `+frameColumns+` FROM sample_images
		WHERE sample_id = ? AND is_mosaic = 1
		ORDER BY seq ASC`, sampleID)
	if err != nil {
		return nil, fmt.Errorf("store: list derived: %w", err)
	}
	return frames, nil
}

// Get returns one frame by id.
func (s *Store) Get(ctx context.Context, id string) (*Frame, error) {
	frames, err := s.query(ctx, `SELECT `+frameColumns+` FROM sample_images WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}
	if len(frames) == 0 {
		return nil, ErrNotFound
	}
	return &frames[0], nil
}

// ListSampleIDs returns every sample that has raw frames, in order of first upload.
func (s *Store) ListSampleIDs(ctx context.Context) ([]string, error) {
	return s.sampleIDs(ctx, `
		SELECT sample_id FROM sample_images
		WHERE is_mosaic = 0
		GROUP BY sample_id
		ORDER BY MIN(seq)`)
}

// PendingSampleIDs returns the samples whose newest raw frame was stored
// after their newest mosaic, or that have no mosaic yet.
func (s *Store) PendingSampleIDs(ctx context.Context) ([]string, error) {
	return s.sampleIDs(ctx, `
		SELECT sample_id FROM sample_images
		GROUP BY sample_id
		HAVING MAX(CASE WHEN is_mosaic = 0 THEN seq END) >
		       COALESCE(MAX(CASE WHEN is_mosaic = 1 THEN seq END), 0)
		ORDER BY MIN(seq)`)
}

func (s *Store) sampleIDs(ctx context.Context, query string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: list samples: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: list samples: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Frame, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		var mosaic int
		var created int64
		if err := rows.Scan(&f.Seq, &f.ID, &f.SampleID, &f.Filename, &f.Data, &mosaic, &f.Tag, &created); err != nil {
			return nil, err
		}
		f.IsMosaic = mosaic != 0
		f.CreatedAt = time.UnixMilli(created)
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
