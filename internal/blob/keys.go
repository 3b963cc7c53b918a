package blob

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	UploadPrefix    = "uploads/"
	ConvertedPrefix = "converted/"
)

// Keys mints storage keys. Upload keys embed the document id so two documents
// never share a blob. Converted keys add a fresh token per conversion run.
type Keys struct {
	token func() string
}

func NewKeys() *Keys {
	return &Keys{token: uuid.NewString}
}

func NewKeysWithToken(token func() string) *Keys {
	return &Keys{token: token}
}

func (k *Keys) Upload(documentID, fileName string) string {
	return fmt.Sprintf("%s%s_%s", UploadPrefix, documentID, BaseName(fileName))
}

func (k *Keys) Converted(documentID, fileName string) string {
	return fmt.Sprintf("%s%s/%s_%s", ConvertedPrefix, documentID, k.token(), PDFName(fileName))
}

// BaseName strips any directory part a client may have sent, for both path flavours.
func BaseName(fileName string) string {
	name := path.Base(filepath.ToSlash(strings.ReplaceAll(fileName, `\`, "/")))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// PDFName replaces the extension of fileName with .pdf.
func PDFName(fileName string) string {
	name := BaseName(fileName)
	return strings.TrimSuffix(name, path.Ext(name)) + ".pdf"
}

// NameFromKey recovers the file name embedded in a key minted by Keys.
// Document ids and tokens never contain an underscore.
func NameFromKey(key string) string {
	name := path.Base(key)
	if _, rest, ok := strings.Cut(name, "_"); ok && rest != "" {
		return rest
	}
	return name
}
