package providers

import (
	"os"

	"gopkg.in/yaml.v3"
)

type YAMLProvider struct {
	filename string
	content  []byte
	key      string
}

func NewYAMLProvider(filename string, content []byte) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
		content:  content,
	}
}

// WithKey narrows decoding to a single top-level key.
func (p *YAMLProvider) WithKey(key string) *YAMLProvider {
	p.key = key
	return p
}

func (p *YAMLProvider) Load(cfg any) error {
	if p.filename == "" && p.content == nil {
		return nil
	}

	if p.content == nil {
		content, err := os.ReadFile(p.filename)
		if err != nil {
			return err
		}
		p.content = content
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(p.content, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}

	if p.key != "" {
		node := findYaml(doc.Content[0], p.key)
		if node == nil {
			return nil
		}
		return node.Decode(cfg)
	}

	return doc.Decode(cfg)
}

func findYaml(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(n.Content); i += 2 {
		k := n.Content[i]
		if k.Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
