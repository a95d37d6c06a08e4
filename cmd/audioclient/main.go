// Command audioclient streams a WAV file to the session WebSocket and
// prints the messages the service sends back. Useful for exercising the
// full pipeline without a browser.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// Stream audio in chunks to simulate real-time streaming
// At 16kHz 16-bit mono = 32000 bytes/second
// 100ms chunks = 3200 bytes
const chunkSize = 3200
const chunkIntervalMs = 100

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file (16kHz 16-bit mono)")
	serverURL := flag.String("server", "ws://localhost:8080/ws/transcription", "Session WebSocket URL")
	holdOpen := flag.Duration("hold", 3*time.Second, "How long to wait for trailing messages after streaming")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}

	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat != 1 { // PCM
		log.Fatal("Only PCM format supported")
	}
	if sampleRate != 16000 {
		log.Printf("Warning: Sample rate is %d Hz, expected 16000 Hz", sampleRate)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", *serverURL)

	// Print everything the service sends back
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg map[string]any
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Printf("<- unparseable message: %s", data)
				continue
			}
			switch msg["type"] {
			case "transcription_update":
				log.Printf("<- transcript (final=%v): %v", msg["is_final"], msg["transcription"])
			case "section_update":
				log.Printf("<- section %v updated (+%v)", msg["section_name"], msg["completeness"])
			case "transcription_status":
				log.Printf("<- status: %v", msg["status"])
			default:
				log.Printf("<- %s", data)
			}
		}
	}()

	// Start transcription
	toggle := []byte(`{"type":"toggle_transcription"}`)
	if err := conn.WriteMessage(websocket.TextMessage, toggle); err != nil {
		log.Fatalf("Failed to send toggle: %v", err)
	}

	audioChunk := make([]byte, chunkSize)
	var totalBytes int64
	var chunkNum int
	startTime := time.Now()

	for {
		n, err := f.Read(audioChunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)

		if err := conn.WriteMessage(websocket.BinaryMessage, audioChunk[:n]); err != nil {
			log.Fatalf("Failed to send frame: %v", err)
		}

		if chunkNum%10 == 0 {
			log.Printf("Sent chunk %d (%d bytes total)", chunkNum, totalBytes)
		}

		// Simulate real-time streaming
		time.Sleep(chunkIntervalMs * time.Millisecond)
	}

	elapsed := time.Since(startTime)
	log.Printf("Finished streaming: %d chunks, %d bytes in %v", chunkNum, totalBytes, elapsed)

	// Give the provider time to flush trailing transcripts
	time.Sleep(*holdOpen)

	// Stop transcription and disconnect cleanly
	if err := conn.WriteMessage(websocket.TextMessage, toggle); err != nil {
		log.Fatalf("Failed to send toggle: %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	log.Println("Done")
}
