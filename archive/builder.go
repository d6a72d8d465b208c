// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/poiesic/modelship/core"
)

const (
	// ModelMember is the archive member name for the model binary.
	ModelMember = "model.pt"
	// TokenizerMember is the archive member name for the tokenizer
	// configuration document.
	TokenizerMember = "tokenizer.json"
)

// Build packages the model binary and tokenizer configuration into a
// gzip-compressed tar archive written to w. The resulting stream is
// the opaque artifact consumed by hashing and chunking.
func Build(w io.Writer, modelPath, tokenizerPath string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	if err := addMember(tw, ModelMember, modelPath); err != nil {
		return err
	}
	if err := addMember(tw, TokenizerMember, tokenizerPath); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("%w: closing tar stream: %v", core.ErrArtifactRead, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("%w: closing gzip stream: %v", core.ErrArtifactRead, err)
	}
	return nil
}

// BuildFile packages the model and tokenizer into an archive file at
// outPath, creating or truncating it.
func BuildFile(outPath, modelPath, tokenizerPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrArtifactRead, err)
	}

	if err := Build(out, modelPath, tokenizerPath); err != nil {
		out.Close()
		os.Remove(outPath)
		return err
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrArtifactRead, err)
	}
	return nil
}

// Members returns the member names of an archive stream in order.
// Used as a sanity check before upload; the upload protocol itself
// never interprets the container.
func Members(r io.Reader) ([]string, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrArtifactRead, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrArtifactRead, err)
		}
		names = append(names, hdr.Name)
	}
	return names, nil
}

func addMember(tw *tar.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrArtifactRead, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrArtifactRead, err)
	}

	hdr := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    info.Size(),
		ModTime: info.ModTime().Truncate(time.Second),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("%w: writing header for %s: %v", core.ErrArtifactRead, name, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("%w: writing %s: %v", core.ErrArtifactRead, name, err)
	}
	return nil
}
