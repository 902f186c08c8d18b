package syllabus

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	"syllabus-crawler/domain/apperror"
	"syllabus-crawler/domain/model"
	"syllabus-crawler/domain/repository"
)

const namePlaceholder = "$name"

// Loader reads chapter info.yaml files from <dataDir>/grades and the channel list
type Loader struct {
	dataDir      string
	channelsFile string
}

func NewLoader(dataDir, channelsFile string) repository.ISyllabus {
	return &Loader{dataDir: dataDir, channelsFile: channelsFile}
}

type chapterDoc struct {
	Name      string    `yaml:"name"`
	IName     string    `yaml:"iname"`
	StudyTime int       `yaml:"study_time"`
	Topics    yaml.Node `yaml:"topics"`
}

// topicDoc keeps a missing accept list nil so it can be told apart from []
type topicDoc struct {
	Name      string    `yaml:"name"`
	Accept    []string  `yaml:"accept"`
	Reject    []string  `yaml:"reject"`
	Subtopics yaml.Node `yaml:"subtopics"`
}

// LoadChapter reads <grade>/<board>/<subject>/<chapter>/info.yaml. Grade, board
// and subject come from the path, not the file.
func (l *Loader) LoadChapter(chapterPath string) (*model.Chapter, error) {
	const op = "syllabus.LoadChapter"

	parts := strings.Split(strings.Trim(filepath.ToSlash(chapterPath), "/"), "/")
	if len(parts) > 0 && parts[0] == "grades" {
		parts = parts[1:]
	}
	if len(parts) != 4 {
		return nil, apperror.Config(op, nil, "chapter path must be <grade>/<board>/<subject>/<chapter>: "+chapterPath)
	}
	grade, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, apperror.Config(op, err, "invalid grade in chapter path")
	}

	file := filepath.Join(append([]string{l.dataDir, "grades"}, append(parts, "info.yaml")...)...)
	raw, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperror.NotFound(op, err, "chapter not found: "+chapterPath)
	}
	if err != nil {
		return nil, apperror.Internal(op, err, "failed to read chapter info")
	}

	var doc chapterDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, apperror.Config(op, err, "malformed chapter info "+file)
	}
	topics, err := decodeTopics(&doc.Topics, doc.Name)
	if err != nil {
		return nil, apperror.Config(op, err, "malformed topics in "+file)
	}

	return &model.Chapter{
		IName:     doc.IName,
		Name:      doc.Name,
		Grade:     grade,
		Board:     strings.ToLower(parts[1]),
		Subject:   strings.ToLower(parts[2]),
		StudyTime: doc.StudyTime,
		Topics:    topics,
	}, nil
}

// decodeTopics walks a key -> topic mapping in document order
func decodeTopics(node *yaml.Node, parentName string) ([]model.NamedTopic, error) {
	out := make([]model.NamedTopic, 0)
	if isNull(node) {
		return out, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.New("topics must be a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var doc topicDoc
		if !isNull(node.Content[i+1]) {
			if err := node.Content[i+1].Decode(&doc); err != nil {
				return nil, err
			}
		}
		name := doc.Name
		if name == "" || name == namePlaceholder {
			name = parentName
		}
		subtopics, err := decodeTopics(&doc.Subtopics, name)
		if err != nil {
			return nil, err
		}
		out = append(out, model.NamedTopic{Key: key, Topic: model.Topic{
			Name:      name,
			Accept:    doc.Accept,
			Reject:    nonNil(doc.Reject),
			Subtopics: subtopics,
		}})
	}
	return out, nil
}

// LoadChannels reads the channel list in file order
func (l *Loader) LoadChannels() ([]model.ChannelSource, error) {
	const op = "syllabus.LoadChannels"

	raw, err := os.ReadFile(l.channelsFile)
	if err != nil {
		return nil, apperror.Config(op, err, "failed to read channel list "+l.channelsFile)
	}
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, apperror.Config(op, err, "malformed channel list")
	}
	out := make([]model.ChannelSource, 0)
	if len(root.Content) == 0 || isNull(root.Content[0]) {
		return out, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, apperror.Config(op, nil, "channel list must be a mapping of name to channel")
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		var ch model.ChannelSource
		if err := doc.Content[i+1].Decode(&ch); err != nil {
			return nil, apperror.Config(op, err, "malformed channel "+doc.Content[i].Value)
		}
		ch.Name = doc.Content[i].Value
		out = append(out, ch)
	}
	return out, nil
}

func isNull(node *yaml.Node) bool {
	return node == nil || node.Kind == 0 || node.Tag == "!!null"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
