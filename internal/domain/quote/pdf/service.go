package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"reseller-ops/go_backend/internal/domain/quote"
)

var ErrArchiveDisabled = errors.New("pdf archive storage not configured")

type QuoteGetter interface {
	GetQuote(ctx context.Context, userID, quoteID string) (*quote.Quote, error)
}

// ObjectStore is the storage bucket archived PDFs are written to.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, objectName, contentType string, data []byte) error
	PublicURL(bucket, objectName string) string
}

// Service renders quotes the caller owns and archives them to object storage.
type Service struct {
	Quotes    QuoteGetter
	Generator Generator
	Storage   ObjectStore
	Bucket    string
	Log       *zap.Logger
}

func (s *Service) RenderPDF(ctx context.Context, userID, quoteID string) ([]byte, *quote.Quote, error) {
	q, err := s.Quotes.GetQuote(ctx, userID, quoteID)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.Generator.Generate(*q)
	if err != nil {
		return nil, nil, fmt.Errorf("render quote %s: %w", q.Number, err)
	}
	return b, q, nil
}

// ArchivePDF uploads the rendered quote and returns its public URL.
func (s *Service) ArchivePDF(ctx context.Context, userID, quoteID string) (string, error) {
	if s.Storage == nil {
		return "", ErrArchiveDisabled
	}
	b, q, err := s.RenderPDF(ctx, userID, quoteID)
	if err != nil {
		return "", err
	}
	name := ObjectName(*q)
	if err := s.Storage.Upload(ctx, s.Bucket, name, "application/pdf", b); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	url := s.Storage.PublicURL(s.Bucket, name)
	if s.Log != nil {
		s.Log.Info("quote pdf archived", zap.String("quote_id", q.ID), zap.String("object", name))
	}
	return url, nil
}

// ObjectName is <user>/quote-<number>.pdf.
func ObjectName(q quote.Quote) string {
	return q.UserID + "/" + FileName(q)
}

func FileName(q quote.Quote) string {
	number := strings.TrimSpace(q.Number)
	if number == "" {
		number = q.ID
	}
	return "quote-" + number + ".pdf"
}
