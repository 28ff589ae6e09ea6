package book

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Service sequences validation, image upload and persistence for every
// book operation.
type Service struct {
	repo     Repository
	uploader Uploader
	log      *zap.Logger
}

// NewService creates a new book service.
func NewService(repo Repository, uploader Uploader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, uploader: uploader, log: log}
}

// Create validates in, uploads the optional image and persists the record.
// Nothing is uploaded or stored when validation fails, and no record is
// created when the upload fails.
func (s *Service) Create(ctx context.Context, in Input) (Book, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return Book{}, err
	}

	url, err := s.upload(ctx, in)
	if err != nil {
		return Book{}, err
	}

	fields := Fields{
		Title:       in.Title,
		Author:      in.Author,
		PublishYear: in.PublishYear,
	}
	if url != "" {
		fields.ImageURL = &url
	}

	b, err := s.repo.Create(ctx, fields)
	if err != nil {
		s.orphaned(url, err)
		return Book{}, err
	}
	return b, nil
}

// Get returns the book with the given id.
func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	return s.repo.Get(ctx, id)
}

// List returns every book in store order; never nil.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

// Update replaces title, author and publish year, and the image URL only
// when a new image is attached. All three text fields are required.
func (s *Service) Update(ctx context.Context, id string, in Input) (Book, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return Book{}, err
	}

	// An unknown id must not leave an asset behind.
	if in.Image != nil {
		if _, err := s.repo.Get(ctx, id); err != nil {
			return Book{}, err
		}
	}

	url, err := s.upload(ctx, in)
	if err != nil {
		return Book{}, err
	}

	patch := Patch{
		Title:       &in.Title,
		Author:      &in.Author,
		PublishYear: &in.PublishYear,
	}
	if url != "" {
		patch.ImageURL = &url
	}

	b, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.orphaned(url, err)
		return Book{}, err
	}
	return b, nil
}

// Delete removes the record. Its image, if any, stays in the asset store.
func (s *Service) Delete(ctx context.Context, id string) (Book, error) {
	return s.repo.Delete(ctx, id)
}

// Ping reports whether the backing store answers.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) upload(ctx context.Context, in Input) (string, error) {
	if in.Image == nil {
		return "", nil
	}
	return s.uploader.Handle(ctx, in.Image)
}

// orphaned logs an uploaded asset that no record references. No
// compensating delete is attempted.
func (s *Service) orphaned(url string, cause error) {
	if url == "" {
		return
	}
	level := s.log.Warn
	if errors.Is(cause, ErrNotFound) {
		level = s.log.Info
	}
	level("uploaded asset left unreferenced",
		zap.String("image_url", url),
		zap.Error(cause),
	)
}
