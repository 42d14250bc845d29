// Command audioclient posts a recording (or a sentence with -text) to a
// running detector and prints the verdict.
package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const wavHeaderSize = 44

func main() {
	audioFile := flag.String("audio", "testdata/sample.wav", "Recording to analyze (WAV, m4a, 3gp, ...)")
	text := flag.String("text", "", "Analyze this sentence instead of a recording")
	serverAddr := flag.String("server", "http://localhost:5000", "Detector base URL")
	timeout := flag.Duration("timeout", 2*time.Minute, "Request timeout")
	flag.Parse()

	client := &http.Client{Timeout: *timeout}

	var (
		req *http.Request
		err error
	)
	if *text != "" {
		req, err = textRequest(*serverAddr, *text)
	} else {
		req, err = audioRequest(*serverAddr, *audioFile)
	}
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}
	log.Printf("%s in %v", resp.Status, time.Since(start).Round(time.Millisecond))
	fmt.Println(pretty.String())

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}

func textRequest(server, text string) (*http.Request, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, server+"/analyze_text", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func audioRequest(server, path string) (*http.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	describeWAV(data)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("audio", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, server+"/analyze", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

// describeWAV logs the PCM format of WAV input; other containers are sent
// as-is for the server to transcode.
func describeWAV(data []byte) {
	if len(data) < wavHeaderSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		log.Printf("Uploading %d bytes (not WAV, server will transcode)", len(data))
		return
	}
	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		binary.LittleEndian.Uint16(data[20:22]),
		binary.LittleEndian.Uint16(data[22:24]),
		binary.LittleEndian.Uint32(data[24:28]),
		binary.LittleEndian.Uint16(data[34:36]))
}
