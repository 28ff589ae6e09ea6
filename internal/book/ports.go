package book

import (
	"context"
	"mime/multipart"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book record storage. Record identity
// is generated here and nowhere else.
type Repository interface {
	Create(ctx context.Context, f Fields) (Book, error)
	Get(ctx context.Context, id string) (Book, error)
	List(ctx context.Context) ([]Book, error)
	Update(ctx context.Context, id string, p Patch) (Book, error)
	Delete(ctx context.Context, id string) (Book, error)
	Ping(ctx context.Context) error
}

// Uploader turns an optional cover image into a public URL ("" when absent).
type Uploader interface {
	Handle(ctx context.Context, file *multipart.FileHeader) (string, error)
}
