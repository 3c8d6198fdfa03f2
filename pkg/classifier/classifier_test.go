package classifier

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMedia(t *testing.T) {
	tests := []struct {
		href     string
		expected bool
	}{
		{"https://i.example.org/g/1.jpg", true},
		{"https://i.example.org/g/1.jpeg", true},
		{"//i.example.org/g/1.png", true},
		{"/g/src/1.gif", true},
		{"1.webm", true},
		{"https://i.example.org/g/1.webp", false},
		{"https://i.example.org/g/1.jpg?download=1", false},
		{"https://other.example.com/page", false},
		{"//iqdb.org/?url=https://i.example.org/g/1.jpg", false},
		{"https://saucenao.com/search.php?url=x.png", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsMedia(tt.href))
		})
	}
}

func TestIsThumbnail(t *testing.T) {
	assert.True(t, IsThumbnail("/thumb/a.jpgs"))
	assert.True(t, IsThumbnail("https://archive.example.net/g/thumb/1700/00/1s.jpg"))
	assert.True(t, IsThumbnail("https://boards.example/thumbs/1s.jpg"))
	assert.False(t, IsThumbnail("/full/a.jpg"))
	assert.False(t, IsThumbnail("https://boards.example/thumbnail.jpg"))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, Thumbnail, Classify("/thumb/a.jpgs"))
	assert.Equal(t, FullImage, Classify("/full/a.jpg"))
	assert.Equal(t, Irrelevant, Classify("http://other.com/page"))
	assert.Equal(t, "thumbnail", Thumbnail.String())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "https://x.com/a.jpg", Normalize("//x.com/a.jpg"))
	assert.Equal(t, "https://x.com/a.jpg", Normalize("https://x.com/a.jpg"))
	assert.Equal(t, "http://x.com/a.jpg", Normalize("http://x.com/a.jpg"))
	assert.Equal(t, "/a.jpg", Normalize("/a.jpg"))

	once := Normalize("//x.com/a.jpg")
	assert.Equal(t, once, Normalize(once))
}

func TestAbsolute(t *testing.T) {
	base, err := url.Parse("https://boards.example/g/thread/123")
	require.NoError(t, err)

	assert.Equal(t, "https://boards.example/full/a.jpg", Absolute(base, "/full/a.jpg"))
	assert.Equal(t, "https://cdn.example/a.jpg", Absolute(base, "//cdn.example/a.jpg"))
	assert.Equal(t, "http://other.example/a.jpg", Absolute(base, "http://other.example/a.jpg"))
	assert.Equal(t, "/full/a.jpg", Absolute(nil, "/full/a.jpg"))
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Dedup([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, Dedup(nil))
}

func TestDirectLinksAndSeeds(t *testing.T) {
	base, err := url.Parse("https://boards.example/g/thread/123")
	require.NoError(t, err)
	hrefs := []string{"/thumb/a.jpgs", "/full/a.jpg", "http://other.com/page", "/full/a.jpg"}

	assert.Equal(t, []string{"https://boards.example/full/a.jpg"}, DirectLinks(base, hrefs))
	assert.Equal(t, []string{"https://cdn.example/thumb/a.jpgs"},
		SeedLinks(append(hrefs, "//cdn.example/thumb/a.jpgs")))
}

func TestSeed(t *testing.T) {
	tests := []struct {
		name   string
		link   string
		seed   string
		wantOK bool
	}{
		{
			name:   "embedded url",
			link:   "https://iqdb.org/?url=https://archive.example.net/g/thumb/1s.jpg",
			seed:   "https://archive.example.net/g/thumb/1s.jpg",
			wantOK: true,
		},
		{
			name:   "plain absolute thumbnail",
			link:   "https://archive.example.net/g/thumb/1s.jpg",
			seed:   "https://archive.example.net/g/thumb/1s.jpg",
			wantOK: true,
		},
		{
			name:   "no embedded url",
			link:   "/thumb/1s.jpg",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, ok := Seed(tt.link)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.seed, seed)
		})
	}
}

func TestSeedLinksDropsLinksWithoutURL(t *testing.T) {
	hrefs := []string{"/thumb/1s.jpg", "thumb/2s.jpg", "/thumb/a.jpgs"}
	assert.Empty(t, SeedLinks(hrefs))
}

func TestSeedLinksEmbeddedURL(t *testing.T) {
	hrefs := []string{
		"//iqdb.org/?url=https://archive.example.net/g/thumb/1s.jpg",
		"/thumb/2s.jpg",
		"https://archive.example.net/g/thumb/3s.jpg",
		"//iqdb.org/?url=https://archive.example.net/g/thumb/1s.jpg",
	}
	assert.Equal(t, []string{
		"https://archive.example.net/g/thumb/1s.jpg",
		"https://archive.example.net/g/thumb/3s.jpg",
	}, SeedLinks(hrefs))
}

func TestMediaLinks(t *testing.T) {
	hrefs := []string{"//cdn.example/thumb/1s.jpg", "//cdn.example/1.png", "/post/2", "//cdn.example/1.png"}
	assert.Equal(t, []string{"https://cdn.example/thumb/1s.jpg", "https://cdn.example/1.png"}, MediaLinks(nil, hrefs))
}

func TestBasenameAndExtension(t *testing.T) {
	assert.Equal(t, "1700000000001.png", Basename("https://i.example.org/g/1700000000001.png"))
	assert.Equal(t, "a.jpg", Basename("https://i.example.org/g/a.jpg?x=1#frag"))
	assert.Equal(t, "g", Basename("https://i.example.org/g/"))
	assert.Equal(t, ".png", Extension("https://i.example.org/g/1700000000001.png"))
	assert.Equal(t, ".jpgs", Extension("/thumb/a.jpgs"))
	assert.Equal(t, "", Extension("https://danbooru.example/posts/42"))
}

func TestStripThumbnailMarker(t *testing.T) {
	assert.Equal(t, "1700000000001.jpg", StripThumbnailMarker("1700000000001s.jpg"))
	assert.Equal(t, "1.jpg", StripThumbnailMarker("1ss.jpg"))
}
