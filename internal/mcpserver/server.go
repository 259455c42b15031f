// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the song library to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dhowden/tag"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ascii-star/internal/search"
	"github.com/starford/ascii-star/internal/storage"
)

// HeaderFormatURI is the resource URI of the header format contract.
const HeaderFormatURI = "ascii-star://header-format"

// Server wraps the MCP server with the song tools.
type Server struct {
	mcp    *server.MCPServer
	engine *search.Engine
	songs  storage.Provider
	audio  storage.Provider
}

// New creates a new MCP server with all tools registered.
func New(engine *search.Engine, songs, audio storage.Provider, version string) *Server {
	s := &Server{engine: engine, songs: songs, audio: audio}

	s.mcp = server.NewMCPServer(
		"ascii-star",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_songs",
		mcp.WithDescription("Search songs by keywords. Every keyword must appear (case-insensitive) "+
			"in the artist, title or genre of a song. An empty query lists every song."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Whitespace-separated keywords")),
	), s.searchSongs)

	s.mcp.AddTool(mcp.NewTool("read_song",
		mcp.WithDescription("Read the full UltraStar text of a song, header and notes."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Song path as returned by search_songs (e.g. song/a.txt) or a file name")),
	), s.readSong)

	s.mcp.AddTool(mcp.NewTool("get_header_format",
		mcp.WithDescription("Returns the song header format understood by search."),
	), s.getHeaderFormat)

	s.mcp.AddTool(mcp.NewTool("read_audio_tags",
		mcp.WithDescription("Read the embedded tags (ID3, MP4, FLAC, Ogg) of an audio file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the audio root (e.g. queen.mp3)")),
	), s.readAudioTags)

	s.mcp.AddResource(
		mcp.NewResource(HeaderFormatURI, "Song Header Format",
			mcp.WithResourceDescription("The #TAG:VALUE header block searched by the server."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readHeaderFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchSongs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.engine.Search(ctx, query)), nil
}

func (s *Server) readSong(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rel := strings.TrimPrefix(path, search.SongRoute+"/")
	data, err := s.songs.Read(rel)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getHeaderFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(HeaderFormatContract), nil
}

func (s *Server) readHeaderFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      HeaderFormatURI,
			MIMEType: "text/markdown",
			Text:     HeaderFormatContract,
		},
	}, nil
}

// audioTags is the JSON shape returned by read_audio_tags.
type audioTags struct {
	Format      string `json:"format"`
	FileType    string `json:"file_type"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	AlbumArtist string `json:"album_artist,omitempty"`
	Album       string `json:"album,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Year        int    `json:"year,omitempty"`
	Track       int    `json:"track,omitempty"`
	Disc        int    `json:"disc,omitempty"`
}

func (s *Server) readAudioTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, _, err := s.audio.Open(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no tags found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	track, _ := m.Track()
	disc, _ := m.Disc()
	return jsonResult(audioTags{
		Format:      string(m.Format()),
		FileType:    string(m.FileType()),
		Title:       m.Title(),
		Artist:      m.Artist(),
		AlbumArtist: m.AlbumArtist(),
		Album:       m.Album(),
		Genre:       m.Genre(),
		Year:        m.Year(),
		Track:       track,
		Disc:        disc,
	}), nil
}

// jsonResult renders v as indented JSON text, or a tool error if v cannot
// be encoded.
func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err))
	}
	return mcp.NewToolResultText(string(out))
}
