package mcp

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/memorio/memorio/internal/memory"
)

func feelingNames() string {
	names := make([]string, 0, len(memory.Feelings))
	for _, f := range memory.Feelings {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

var createToolDef = mcp.NewTool("memory_create",
	mcp.WithDescription("Create a journal memory. Kind selects the payload: "+
		"text and activity use content; feeling uses the feeling argument; "+
		"location uses latitude/longitude/location_name; weather looks up "+
		"current conditions at latitude/longitude; media uses media_type with "+
		"image_path or video_file_name."),
	mcp.WithString("kind",
		mcp.Required(),
		mcp.Description("Memory kind: text, feeling, location, activity, media, or weather."),
	),
	mcp.WithNumber("date",
		mcp.Description("Unix timestamp the memory belongs to. Defaults to now."),
	),
	mcp.WithString("title",
		mcp.Description("Optional title."),
	),
	mcp.WithString("content",
		mcp.Description("Body text. Required for text and activity memories."),
	),
	mcp.WithString("feeling",
		mcp.Description(fmt.Sprintf("Feeling name for feeling memories: %s.", feelingNames())),
	),
	mcp.WithNumber("latitude",
		mcp.Description("Latitude for location and weather memories."),
	),
	mcp.WithNumber("longitude",
		mcp.Description("Longitude for location and weather memories."),
	),
	mcp.WithString("location_name",
		mcp.Description("Human-readable place name for location memories."),
	),
	mcp.WithString("media_type",
		mcp.Description("Media kind for media memories: photo or video."),
	),
	mcp.WithString("image_path",
		mcp.Description("Image file path for photo media memories."),
	),
	mcp.WithString("video_file_name",
		mcp.Description("Video file name under the media directory for video media memories."),
	),
)

var fetchToolDef = mcp.NewTool("memory_fetch",
	mcp.WithDescription("Fetch a single memory by ID."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Memory ID."),
	),
)

var listToolDef = mcp.NewTool("memory_list",
	mcp.WithDescription("List memories newest-first, optionally restricted to a day or date range."),
	mcp.WithString("day",
		mcp.Description("Restrict to one calendar day, formatted YYYY-MM-DD."),
	),
	mcp.WithString("from",
		mcp.Description("Range start day (inclusive), formatted YYYY-MM-DD."),
	),
	mcp.WithString("to",
		mcp.Description("Range end day (exclusive), formatted YYYY-MM-DD."),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum results per page (default 50, max 500)."),
	),
	mcp.WithNumber("offset",
		mcp.Description("Pagination offset."),
	),
)

var calendarToolDef = mcp.NewTool("memory_calendar",
	mcp.WithDescription("Group memories by calendar day over a date range, for calendar browsing."),
	mcp.WithString("from",
		mcp.Required(),
		mcp.Description("Range start day (inclusive), formatted YYYY-MM-DD."),
	),
	mcp.WithString("to",
		mcp.Required(),
		mcp.Description("Range end day (exclusive), formatted YYYY-MM-DD."),
	),
)

var rewindToolDef = mcp.NewTool("memory_rewind",
	mcp.WithDescription("Look back at memories from significant past dates: "+
		"a week ago, two weeks, one/two/three/six months, one/two years, "+
		"100 and 123 days ago. Days with no memories are omitted."),
	mcp.WithString("now",
		mcp.Description("Anchor day for the lookback, formatted YYYY-MM-DD. Defaults to today."),
	),
)

var deleteToolDef = mcp.NewTool("memory_delete",
	mcp.WithDescription("Delete a memory by ID. Video media memories also have their recorded file removed."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Memory ID."),
	),
)

var exportToolDef = mcp.NewTool("memory_export",
	mcp.WithDescription("Export the whole journal to a file, as JSONL or a rendered HTML journal."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Destination file path."),
	),
	mcp.WithString("format",
		mcp.Description("Export format: jsonl (default) or html."),
	),
)
