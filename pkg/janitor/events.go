package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"gocloud.dev/pubsub"
)

const (
	metadataFileID = "fileID"
	metadataKind   = "kind"
	kindOrphan     = "orphaned-file"
)

// OrphanedFile names a stored file whose project is gone (or never
// made it) and that still has to be deleted.
type OrphanedFile struct {
	FileID    string    `cbor:"1,keyasint"`
	ProjectID string    `cbor:"2,keyasint,omitempty"`
	Reason    string    `cbor:"3,keyasint,omitempty"`
	Reported  time.Time `cbor:"4,keyasint"`
}

func encodeOrphan(o OrphanedFile) ([]byte, error) {
	return cbor.Marshal(o)
}

func decodeOrphan(data []byte) (OrphanedFile, error) {
	var o OrphanedFile
	err := cbor.Unmarshal(data, &o)
	return o, err
}

// Reporter publishes orphaned files onto the janitor topic.
type Reporter struct {
	topic *pubsub.Topic
	now   func() time.Time
}

func NewReporter(topic *pubsub.Topic) *Reporter {
	return &Reporter{topic: topic, now: time.Now}
}

func (r *Reporter) ReportOrphan(ctx context.Context, fileID, projectID, reason string) error {
	if fileID == "" {
		return nil
	}
	body, err := encodeOrphan(OrphanedFile{
		FileID:    fileID,
		ProjectID: projectID,
		Reason:    reason,
		Reported:  r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode orphan %q: %w", fileID, err)
	}

	err = r.topic.Send(ctx, &pubsub.Message{
		Body: body,
		Metadata: map[string]string{
			metadataKind:   kindOrphan,
			metadataFileID: fileID,
		},
	})
	if err != nil {
		return fmt.Errorf("publish orphan %q: %w", fileID, err)
	}
	return nil
}
