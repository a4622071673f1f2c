package discord

// AddTipModalID correlates the add form with its submission.
const AddTipModalID = "add_tip"

// Text input ids of the add form.
const (
	FieldTitle   = "title"
	FieldTags    = "tags"
	FieldType    = "type"
	FieldLink    = "link"
	FieldContent = "content"
)

const (
	componentActionRow = 1
	componentTextInput = 4

	textInputShort     = 1
	textInputParagraph = 2
)

// ModalData is the payload of a modal response.
type ModalData struct {
	CustomID   string      `json:"custom_id"`
	Title      string      `json:"title"`
	Components []ActionRow `json:"components"`
}

type ActionRow struct {
	Type       int         `json:"type"`
	Components []TextInput `json:"components"`
}

type TextInput struct {
	Type        int    `json:"type"`
	CustomID    string `json:"custom_id"`
	Label       string `json:"label"`
	Style       int    `json:"style"`
	Value       string `json:"value,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required"`
	MaxLength   int    `json:"max_length,omitempty"`
}

func row(input TextInput) ActionRow {
	input.Type = componentTextInput
	return ActionRow{Type: componentActionRow, Components: []TextInput{input}}
}

// AddTipModal asks the caller for the rest of a new entry. Everything the
// submission needs travels inside the form; nothing is kept server side.
func AddTipModal(title string) InteractionResponse {
	return InteractionResponse{
		Type: ResponseTypeModal,
		Data: ModalData{
			CustomID: AddTipModalID,
			Title:    "Add a new tip",
			Components: []ActionRow{
				row(TextInput{CustomID: FieldTitle, Label: "Title", Style: textInputShort, Value: title, Required: true, MaxLength: 200}),
				row(TextInput{CustomID: FieldTags, Label: "Tags", Style: textInputShort, Placeholder: "Unity, Shaders", Required: false}),
				row(TextInput{CustomID: FieldType, Label: "Type", Style: textInputShort, Value: "tip", Placeholder: "talk, guide, tip, source, link or snippet", Required: false, MaxLength: 16}),
				row(TextInput{CustomID: FieldLink, Label: "Link", Style: textInputShort, Placeholder: "https://", Required: false}),
				row(TextInput{CustomID: FieldContent, Label: "Content", Style: textInputParagraph, Required: false, MaxLength: 4000}),
			},
		},
	}
}
