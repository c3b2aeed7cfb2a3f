// Package textutil provides the pure text splitting used when a reply
// exceeds the transport's message size limit.
package textutil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPieceTooLarge is returned when a single piece between separators
// already exceeds the chunk size and can not be split further.
var ErrPieceTooLarge = errors.New("message piece is bigger than the chunk size")

// Chunks splits message on splitChar into chunks of at most chunkSize
// bytes and annotates each chunk with a "Page i/n" footer. A message that
// already fits is returned as a single chunk without a footer.
func Chunks(message, splitChar string, chunkSize int) ([]string, error) {
	if len(message) < chunkSize {
		return []string{message}, nil
	}

	var (
		chunks       []string
		currentChunk strings.Builder
	)

	for _, piece := range strings.Split(message, splitChar) {
		if len(piece) > chunkSize {
			return nil, ErrPieceTooLarge
		}

		if len(piece)+currentChunk.Len() > chunkSize {
			chunks = append(chunks, currentChunk.String())
			currentChunk.Reset()
		}

		currentChunk.WriteString(piece)
		currentChunk.WriteString("\n")
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	totalPages := len(chunks)
	for i, chunk := range chunks {
		chunks[i] = fmt.Sprintf("%s\nPage %d/%d", chunk, i+1, totalPages)
	}

	return chunks, nil
}
