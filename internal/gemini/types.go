package gemini

// Attachment is one uploaded document page or photo, already encoded for the
// wire.
type Attachment struct {
	DataBase64 string
	MimeType   string
}
