package dto

// EmbedPassageMessage is the queue payload for one passage awaiting
// embedding and storage.
type EmbedPassageMessage struct {
	SourceFile string `json:"source_file"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}
