package probe

import (
	"path/filepath"
	"strings"

	"github.com/himanishpuri/SyncDeck/pkg/models"
)

var extensionKinds = map[string]models.MediaKind{
	".mp4":  models.KindVideo,
	".m4v":  models.KindVideo,
	".mov":  models.KindVideo,
	".webm": models.KindVideo,
	".mkv":  models.KindVideo,
	".avi":  models.KindVideo,
	".png":  models.KindImage,
	".jpg":  models.KindImage,
	".jpeg": models.KindImage,
	".gif":  models.KindImage,
	".webp": models.KindImage,
	".bmp":  models.KindImage,
	".wav":  models.KindAudio,
	".mp3":  models.KindAudio,
	".flac": models.KindAudio,
	".ogg":  models.KindAudio,
	".m4a":  models.KindAudio,
	".aac":  models.KindAudio,
	".pdf":  models.KindDocument,
	".csv":  models.KindDocument,
	".txt":  models.KindDocument,
	".md":   models.KindDocument,
}

// KindFromPath guesses the media kind from a file extension. Unknown
// extensions return the empty kind.
func KindFromPath(path string) models.MediaKind {
	return extensionKinds[strings.ToLower(filepath.Ext(path))]
}
