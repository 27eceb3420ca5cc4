package requests

// CreateConversationRequest creates a conversation with an optional initial
// context scope.
type CreateConversationRequest struct {
	Title         *string  `json:"title"`
	ClassIDs      []string `json:"class_ids"`
	AssignmentIDs []string `json:"assignment_ids"`
	PDFIDs        []string `json:"pdf_ids"`
	NoteIDs       []string `json:"note_ids"`
}

// UpdateContextRequest replaces scope sets on an existing conversation.
// Omitted fields leave the corresponding set unchanged.
type UpdateContextRequest struct {
	Title         *string   `json:"title"`
	ClassIDs      *[]string `json:"class_ids"`
	AssignmentIDs *[]string `json:"assignment_ids"`
	PDFIDs        *[]string `json:"pdf_ids"`
	NoteIDs       *[]string `json:"note_ids"`
}

// ChatMessageRequest carries one user message for a streamed turn.
type ChatMessageRequest struct {
	Message string `json:"message" binding:"required"`
}
