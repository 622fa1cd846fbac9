package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"strconv"

	"github.com/h2non/filetype"
)

// FormFile is an image payload attached to a multipart write.
type FormFile struct {
	Field string
	Name  string
	Data  []byte
}

type RegisterForm struct {
	Username     string
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Password2    string
	Bio          string
	ProfileImage *FormFile
}

type ProfileForm struct {
	FirstName    string
	LastName     string
	Bio          string
	ProfileImage *FormFile
}

type StoryForm struct {
	Title        string
	Genre        string
	Synopsis     string
	Status       string
	IsSerialized bool
	Tags         []string
	CoverImage   *FormFile
}

type ChapterForm struct {
	ChapterNo   int    `json:"chapter_no"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	IsPublished bool   `json:"is_published"`
}

// validateImage sniffs the payload and rejects anything that is not an
// image before it leaves the client.
func validateImage(f *FormFile) error {
	if f == nil {
		return nil
	}
	if !filetype.IsImage(f.Data) {
		return fmt.Errorf("%s: %q is not a recognized image", f.Field, f.Name)
	}
	return nil
}

// buildMultipart assembles a multipart/form-data body. Empty field values
// are skipped so a PATCH only carries what the caller set.
func buildMultipart(fields map[string]string, lists map[string][]string, files ...*FormFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	for name, values := range lists {
		for _, value := range values {
			if err := w.WriteField(name, value); err != nil {
				return nil, "", err
			}
		}
	}

	for _, f := range files {
		if f == nil {
			continue
		}
		if err := validateImage(f); err != nil {
			return nil, "", err
		}
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (f RegisterForm) encode() (*bytes.Buffer, string, error) {
	return buildMultipart(map[string]string{
		"username":   f.Username,
		"first_name": f.FirstName,
		"last_name":  f.LastName,
		"email":      f.Email,
		"password":   f.Password,
		"password2":  f.Password2,
		"bio":        f.Bio,
	}, nil, fileOrNil(f.ProfileImage, "profile_image"))
}

func (f ProfileForm) encode() (*bytes.Buffer, string, error) {
	return buildMultipart(map[string]string{
		"first_name": f.FirstName,
		"last_name":  f.LastName,
		"bio":        f.Bio,
	}, nil, fileOrNil(f.ProfileImage, "profile_image"))
}

func (f StoryForm) encode() (*bytes.Buffer, string, error) {
	return buildMultipart(map[string]string{
		"title":         f.Title,
		"genre":         f.Genre,
		"synopsis":      f.Synopsis,
		"status":        f.Status,
		"is_serialized": strconv.FormatBool(f.IsSerialized),
	}, map[string][]string{
		"tags": f.Tags,
	}, fileOrNil(f.CoverImage, "cover_image"))
}

func fileOrNil(f *FormFile, field string) *FormFile {
	if f == nil {
		return nil
	}
	f.Field = field
	return f
}
