package logger

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Conf holds configuration related to logging
type Conf struct {
	Dir    string `yaml:"dir"`
	StdErr bool   `yaml:"stderr"`
	Level  string `yaml:"level"`
}

// Init configures the global logrus logger from the passed Conf. Logs go
// to a file under Dir when set, to stderr otherwise, or to both.
func Init(conf Conf) {
	level, err := log.ParseLevel(conf.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)

	var writers []io.Writer
	if conf.Dir != "" {
		f, err := os.OpenFile(
			filepath.Join(conf.Dir, "railpoint.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640,
		)
		if err != nil {
			log.WithError(err).Error("could not open log file, falling back to stderr")
		} else {
			writers = append(writers, f)
		}
	}
	if conf.StdErr || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}
	log.SetOutput(io.MultiWriter(writers...))
}
