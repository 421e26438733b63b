package quotes

const (
	idColumn   = "id"
	textColumn = "quote_text"
)

type Quote struct {
	ID   string `validate:"required"`
	Text string `validate:"required"`
}
