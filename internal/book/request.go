package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// ImageField is the multipart part that carries the cover image.
const ImageField = "image"

// multipartMemory is how much of a multipart body is buffered in memory
// before parts spill to temporary files.
const multipartMemory = 8 << 20

// RequestError reports a body that could not be decoded at all.
type RequestError struct {
	Msg string
	Err error
}

func (e *RequestError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// decodeInput reads title, author, publishYear and the optional image from
// a multipart, JSON or urlencoded body. Size-limit errors from the request
// body reader are returned unchanged.
func decodeInput(r *http.Request) (Input, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return Input{}, &RequestError{Msg: "unsupported content type", Err: err}
	}

	switch mediaType {
	case "multipart/form-data":
		return decodeMultipart(r)
	case "application/json":
		return decodeJSON(r.Body)
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return Input{}, bodyError("malformed form body", err)
		}
		return formInput(r.PostForm.Get), nil
	default:
		return Input{}, &RequestError{Msg: fmt.Sprintf("unsupported content type %q", mediaType)}
	}
}

func decodeMultipart(r *http.Request) (Input, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return Input{}, bodyError("malformed multipart body", err)
	}

	in := formInput(func(key string) string {
		if vs := r.MultipartForm.Value[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	})

	if files := r.MultipartForm.File[ImageField]; len(files) > 0 {
		in.Image = files[0]
	}
	return in, nil
}

func formInput(get func(string) string) Input {
	in := Input{Title: get("title"), Author: get("author")}
	in.setYear(get("publishYear"))
	return in
}

type jsonInput struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	PublishYear json.RawMessage `json:"publishYear"`
}

func decodeJSON(body io.Reader) (Input, error) {
	var req jsonInput
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return Input{}, bodyError("malformed JSON body", err)
	}

	in := Input{Title: req.Title, Author: req.Author}
	raw := strings.TrimSpace(string(req.PublishYear))
	switch {
	case raw == "" || raw == "null":
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(req.PublishYear, &s); err != nil {
			return Input{}, bodyError("malformed JSON body", err)
		}
		in.setYear(s)
	default:
		in.setYear(raw)
	}
	return in, nil
}

// setYear treats an empty value as missing and records anything that is
// not an integer as malformed, leaving the year unset.
func (in *Input) setYear(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		in.malformed = append(in.malformed, FieldError{
			Field:   "publishYear",
			Message: "publishYear must be an integer",
		})
		return
	}
	in.PublishYear = year
}

func bodyError(msg string, err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	if errors.Is(err, multipart.ErrMessageTooLarge) {
		return err
	}
	return &RequestError{Msg: msg, Err: err}
}
