package convert_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inbucket/email2md/pkg/attach"
	"github.com/inbucket/email2md/pkg/convert"
	"github.com/inbucket/email2md/pkg/format"
	"github.com/inbucket/email2md/pkg/input"
	"github.com/inbucket/email2md/pkg/test"
	"github.com/jhillyerd/goldiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func toHTML(t *testing.T, eml []byte, opts ...convert.Option) string {
	t.Helper()
	got, err := convert.ToHTML(input.FromBytes(eml), mustOptions(t, opts...))
	require.NoError(t, err)
	return got
}

func toMarkdown(t *testing.T, eml []byte, opts ...convert.Option) string {
	t.Helper()
	got, err := convert.ToMarkdown(input.FromBytes(eml), mustOptions(t, opts...))
	require.NoError(t, err)
	return got
}

func TestHTMLGolden(t *testing.T) {
	got := toHTML(t, test.EMLWithImages(), convert.WithHeaders("From", "Subject"))
	goldiff.File(t, []byte(got), "testdata", "images.golden")
}

func TestHTMLHeaderBlock(t *testing.T) {
	got := toHTML(t, test.SimpleEML())
	assert.True(t, strings.HasPrefix(got, `<div class="email-headers">`))
	assert.Contains(t, got, "<p><strong>From:</strong> sender@example.com</p>")
	assert.Contains(t, got, "<p><strong>To:</strong> recipient@example.com</p>")
	assert.Contains(t, got, "<p><strong>Subject:</strong> Test Email</p>")
	assert.Contains(t, got, "<h1>Hello World</h1>")
	assert.Less(t, strings.Index(got, "From:"), strings.Index(got, "Subject:"))
	assert.Less(t, strings.Index(got, "</div>"), strings.Index(got, "<h1>"))
}

func TestHTMLHeaderSelection(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		got := toHTML(t, test.SimpleEML(), convert.WithoutHeaders())
		assert.NotContains(t, got, "email-headers")
		assert.NotContains(t, got, "From:")
		assert.True(t, strings.HasPrefix(got, "<h1>Hello World</h1>"))
	})
	t.Run("allow list order", func(t *testing.T) {
		got := toHTML(t, test.SimpleEML(), convert.WithHeaders("subject", "From"))
		assert.Contains(t, got, "<strong>Subject:</strong> Test Email")
		assert.Contains(t, got, "<strong>From:</strong> sender@example.com")
		assert.NotContains(t, got, "To:")
		assert.NotContains(t, got, "Date:")
		assert.Less(t, strings.Index(got, "Subject:"), strings.Index(got, "From:"))
	})
	t.Run("missing only", func(t *testing.T) {
		got := toHTML(t, test.SimpleEML(), convert.WithHeaders("X-Missing"))
		assert.NotContains(t, got, "email-headers")
	})
}

func TestHTMLHeaderEscaping(t *testing.T) {
	eml := []byte("From: \"A <b>\" <a@example.com>\r\nSubject: 1 < 2 & 3\r\n" +
		"Content-Type: text/plain\r\n\r\nbody\r\n")
	got := toHTML(t, eml, convert.WithHeaders("Subject"))
	assert.Contains(t, got, "<strong>Subject:</strong> 1 &lt; 2 &amp; 3")
}

func TestHTMLInlineImage(t *testing.T) {
	got := toHTML(t, test.EMLWithImages())
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(test.PNG1)
	assert.Contains(t, got, `src="`+dataURI+`"`)
	assert.Contains(t, got, `alt="Test Image"`)
	assert.NotContains(t, got, "cid:")
	assert.NotContains(t, got, `class="attachments"`, "inline images are not listed")
}

func TestHTMLMultipleInlineImages(t *testing.T) {
	got := toHTML(t, test.EMLWithTwoImages())
	assert.Equal(t, 2, strings.Count(got, "data:image/png;base64,"))
	assert.Contains(t, got, base64.StdEncoding.EncodeToString(test.PNG1))
	assert.Contains(t, got, base64.StdEncoding.EncodeToString(test.PNG2))
	assert.Contains(t, got, `alt="1.png"`)
	assert.Contains(t, got, `alt="2.png"`)
}

func TestHTMLKeepsEmptyAlt(t *testing.T) {
	eml := bytes.Replace(test.EMLWithTwoImages(), []byte(`<img src="cid:img1">`),
		[]byte(`<img src="cid:img1" alt="">`), 1)
	got := toHTML(t, eml)
	assert.Contains(t, got, `alt=""`)
	assert.NotContains(t, got, `alt="1.png"`)
	assert.Contains(t, got, `alt="2.png"`)
}

func TestHTMLWithoutImages(t *testing.T) {
	got := toHTML(t, test.EMLWithImages(), convert.WithoutImages())
	assert.NotContains(t, got, "<img")
	assert.NotContains(t, got, "data:image/png;base64,")
	assert.NotContains(t, got, "cid:")
	assert.Contains(t, got, "Check out this image:")
}

func TestHTMLWithoutImagesKeepsAttachmentList(t *testing.T) {
	got := toHTML(t, test.EMLUnreferencedCID(), convert.WithoutImages())
	assert.Contains(t, got, "<li>logo.png</li>")
}

func TestHTMLUnresolvedCID(t *testing.T) {
	eml := []byte("From: a@example.com\r\nSubject: x\r\nMIME-Version: 1.0\r\n" +
		"Content-Type: text/html\r\n\r\n<p><img src=\"cid:missing\"></p>\r\n")
	res, err := convert.New().HTML(input.FromBytes(eml), convert.Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Output, `src="cid:missing"`)
	assert.NotContains(t, res.Output, "alt=")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, input.WarnUnresolvedCID, res.Warnings[0].Kind)
	assert.Contains(t, res.Warnings[0].Message, "cid:missing")
}

func TestHTMLAttachmentList(t *testing.T) {
	got := toHTML(t, test.EMLWithAttachments())
	assert.Contains(t, got, `<div class="attachments"><p><strong>Attachments:</strong></p>`+
		`<ul><li>document.pdf</li></ul></div>`)
	assert.Less(t, strings.Index(got, "email-headers"), strings.Index(got, "attachments"))
	assert.Less(t, strings.Index(got, "attachments"), strings.Index(got, "Email with attachments"))

	got = toHTML(t, test.EMLWithAttachments(), convert.WithoutHeaders())
	assert.True(t, strings.HasPrefix(got, `<div class="attachments">`))

	got = toHTML(t, test.EMLWithAttachments(), convert.WithoutAttachmentList())
	assert.NotContains(t, got, `<div class="attachments">`)
	assert.NotContains(t, got, "document.pdf")
}

func TestHTMLUnreferencedContentIDListed(t *testing.T) {
	got := toHTML(t, test.EMLUnreferencedCID(), convert.WithoutHeaders())
	assert.Contains(t, got, "<li>logo.png</li>")
	assert.NotContains(t, got, "<img")
}

func TestHTMLLinks(t *testing.T) {
	got := toHTML(t, test.EMLWithLinks())
	assert.Contains(t, got, `<a href="https://example.com">website</a>`)
	assert.Contains(t, got, `<a href="https://test.com">link here</a>`)

	got = toHTML(t, test.EMLWithLinks(), convert.WithoutHrefs())
	assert.NotContains(t, got, "href")
	assert.Contains(t, got, "<a>website</a>")
	assert.Contains(t, got, "<a>link here</a>")
}

func TestHTMLPlainFallback(t *testing.T) {
	got := toHTML(t, test.EMLPlainOnly(), convert.WithoutHeaders())
	assert.True(t, strings.HasPrefix(got, "<pre>"))
	assert.True(t, strings.HasSuffix(got, "</pre>"))
	assert.Contains(t, got, "This is plain text only.")

	got = toHTML(t, test.EMLPlainMarkup(), convert.WithoutHeaders())
	assert.Contains(t, got, "&lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, got, "a &lt; b &amp;&amp; c &gt; d")
	assert.NotContains(t, got, "&amp;lt;", "escaped exactly once")

	got = toHTML(t, test.EMLPlainOnly(), convert.WithoutHeaders(), convert.WithoutPlainFallback())
	assert.Empty(t, got)

	got = toHTML(t, test.EMLPlainOnly(), convert.WithoutPlainFallback())
	assert.Contains(t, got, "email-headers")
	assert.NotContains(t, got, "<pre>")
}

func TestHTMLPrefersHTMLBody(t *testing.T) {
	got := toHTML(t, test.SimpleEML())
	assert.NotContains(t, got, "<pre>")
	assert.NotContains(t, got, "Plain text body")
}

func TestHTMLNoBody(t *testing.T) {
	got := toHTML(t, test.EMLNoBody())
	assert.Contains(t, got, "email-headers")
	assert.Contains(t, got, "<li>document.pdf</li>")
	assert.NotContains(t, got, "<pre>")

	got = toHTML(t, test.EMLNoBody(), convert.WithoutHeaders(), convert.WithoutAttachmentList())
	assert.Empty(t, got)
}

func TestHTMLSanitize(t *testing.T) {
	eml := []byte("From: a@example.com\r\nContent-Type: text/html\r\n\r\n" +
		"<p onclick=\"steal()\">hi</p><script>alert(1)</script>\r\n")
	got := toHTML(t, eml, convert.WithoutHeaders())
	assert.Contains(t, got, "<script>")

	got = toHTML(t, eml, convert.WithoutHeaders(), convert.WithSanitize())
	assert.NotContains(t, got, "<script>")
	assert.NotContains(t, got, "onclick")
	assert.Contains(t, got, "<p>hi</p>")

	// Inlined images survive sanitizing.
	got = toHTML(t, test.EMLWithImages(), convert.WithSanitize())
	assert.Contains(t, got, "data:image/png;base64,")
}

func TestHTMLDeterministic(t *testing.T) {
	for name, eml := range map[string][]byte{
		"images":      test.EMLWithTwoImages(),
		"attachments": test.EMLDuplicateNames(),
		"simple":      test.SimpleEML(),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, toHTML(t, eml), toHTML(t, eml))
		})
	}
}

func TestMarkdown(t *testing.T) {
	got := toMarkdown(t, test.SimpleEML())
	assert.Contains(t, got, "**From:** sender@example.com")
	assert.Contains(t, got, "# Hello World")

	got = toMarkdown(t, test.EMLWithLinks())
	assert.Contains(t, got, "[website](https://example.com)")

	got = toMarkdown(t, test.EMLWithLinks(), convert.WithoutHrefs())
	assert.Contains(t, got, "website")
	assert.NotContains(t, got, "https://example.com")

	got = toMarkdown(t, test.EMLWithAttachments())
	assert.Contains(t, got, "**Attachments:**")
	assert.Contains(t, got, "- document.pdf")

	got = toMarkdown(t, test.EMLWithImages())
	assert.Contains(t, got, "![Test Image](data:image/png;base64,")

	got = toMarkdown(t, test.EMLWithImages(), convert.WithoutImages())
	assert.NotContains(t, got, "data:image/png;base64,")
	assert.NotContains(t, got, "![")
}

type recordingRenderer struct {
	got string
}

func (r *recordingRenderer) Render(html string) (string, error) {
	r.got = html
	return "rendered", nil
}

func TestMarkdownUsesRenderer(t *testing.T) {
	r := &recordingRenderer{}
	c := convert.New()
	c.Renderer = r
	res, err := c.Markdown(input.FromBytes(test.SimpleEML()), convert.Options{})
	require.NoError(t, err)
	assert.Equal(t, "rendered", res.Output)
	assert.Equal(t, toHTML(t, test.SimpleEML()), r.got)
}

type fakeDecoder struct {
	eml []byte
	err error
	got []byte
}

func (d *fakeDecoder) Decode(msg []byte) ([]byte, error) {
	d.got = msg
	return d.eml, d.err
}

func TestConvertMSG(t *testing.T) {
	msg := append(append([]byte(nil), test.MSGMagic...), "compound"...)
	d := &fakeDecoder{eml: test.SimpleEML()}
	c := convert.New()
	c.Decoder = d

	res, err := c.HTML(input.FromBytes(msg), convert.Options{})
	require.NoError(t, err)
	assert.Equal(t, format.MSG, res.Format)
	assert.Equal(t, msg, d.got)
	assert.Contains(t, res.Output, "<h1>Hello World</h1>")

	// EML input bypasses the decoder.
	d.got = nil
	res, err = c.HTML(input.FromBytes(test.SimpleEML()), convert.Options{})
	require.NoError(t, err)
	assert.Equal(t, format.EML, res.Format)
	assert.Nil(t, d.got)
}

func TestConvertMSGDecodeErrorUnchanged(t *testing.T) {
	errDecode := errors.New("corrupt compound file")
	c := convert.New()
	c.Decoder = &fakeDecoder{err: errDecode}
	_, err := c.Markdown(input.FromBytes(test.MSGMagic), convert.Options{})
	assert.Equal(t, errDecode, err)
}

func TestConvertNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.eml")
	_, err := convert.ToMarkdown(input.FromPath(path), convert.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, input.ErrNotFound))
	assert.Contains(t, err.Error(), path)
}

// AttachmentSuite covers conversions that write files.
type AttachmentSuite struct {
	suite.Suite
	dir string
}

func TestAttachmentSuite(t *testing.T) {
	suite.Run(t, new(AttachmentSuite))
}

func (s *AttachmentSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *AttachmentSuite) convert(src input.Source, opts ...convert.Option) *convert.Result {
	o, err := convert.NewOptions(opts...)
	s.Require().NoError(err)
	res, err := convert.New().HTML(src, o)
	s.Require().NoError(err)
	return res
}

func (s *AttachmentSuite) assertFile(name string, want []byte) {
	got, err := os.ReadFile(filepath.Join(s.dir, name))
	s.Require().NoError(err)
	s.Equal(want, got)
}

func (s *AttachmentSuite) TestSaveToOutputDir() {
	res := s.convert(input.FromBytes(test.EMLWithAttachments()),
		convert.WithSaveAttachments(), convert.WithOutputDir(s.dir))
	s.assertFile("document.pdf", test.PDF)
	s.Require().Len(res.Saved, 1)
	s.Equal("document.pdf", res.Saved[0].Original)
	s.Equal("document.pdf", res.Saved[0].Name)
	s.Contains(res.Output, "<li>document.pdf</li>")
}

func (s *AttachmentSuite) TestNoSaveByDefault() {
	res := s.convert(input.FromBytes(test.EMLWithAttachments()), convert.WithOutputDir(s.dir))
	s.Empty(res.Saved)
	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *AttachmentSuite) TestSaveCreatesOutputDir() {
	dir := filepath.Join(s.dir, "nested", "out")
	s.convert(input.FromBytes(test.EMLWithAttachments()),
		convert.WithSaveAttachments(), convert.WithOutputDir(dir))
	s.FileExists(filepath.Join(dir, "document.pdf"))
}

func (s *AttachmentSuite) TestDuplicateNames() {
	res := s.convert(input.FromBytes(test.EMLDuplicateNames()),
		convert.WithSaveAttachments(), convert.WithOutputDir(s.dir))
	s.Require().Len(res.Saved, 2)
	s.Equal("report.csv", res.Saved[0].Name)
	s.Equal("report-1.csv", res.Saved[1].Name)
	s.Contains(res.Output, "<li>report.csv</li><li>report-1.csv</li>")

	a, err := os.ReadFile(filepath.Join(s.dir, "report.csv"))
	s.Require().NoError(err)
	b, err := os.ReadFile(filepath.Join(s.dir, "report-1.csv"))
	s.Require().NoError(err)
	s.Equal("a,b", strings.TrimSpace(string(a)))
	s.Equal("c,d", strings.TrimSpace(string(b)))
}

func (s *AttachmentSuite) TestExistingFileNotOverwritten() {
	existing := filepath.Join(s.dir, "document.pdf")
	s.Require().NoError(os.WriteFile(existing, []byte("keep me"), 0644))

	res := s.convert(input.FromBytes(test.EMLWithAttachments()),
		convert.WithSaveAttachments(), convert.WithOutputDir(s.dir))
	s.assertFile("document.pdf", []byte("keep me"))
	s.assertFile("document-1.pdf", test.PDF)
	s.Contains(res.Output, "<li>document-1.pdf</li>")
}

func (s *AttachmentSuite) TestReferencedImages() {
	res := s.convert(input.FromBytes(test.EMLWithImages()),
		convert.WithSaveAttachments(), convert.WithReferencedImages(), convert.WithOutputDir(s.dir))
	s.assertFile("test.png", test.PNG1)
	s.Contains(res.Output, `src="test.png"`)
	s.NotContains(res.Output, "data:image/png;base64,")
	s.NotContains(res.Output, `class="attachments"`)
}

func (s *AttachmentSuite) TestReferencedImageRenamed() {
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "test.png"), nil, 0644))
	res := s.convert(input.FromBytes(test.EMLWithImages()),
		convert.WithSaveAttachments(), convert.WithReferencedImages(), convert.WithOutputDir(s.dir))
	s.assertFile("test-1.png", test.PNG1)
	s.Contains(res.Output, `src="test-1.png"`)
}

func (s *AttachmentSuite) TestInlineImagesNotSaved() {
	s.convert(input.FromBytes(test.EMLWithImages()),
		convert.WithSaveAttachments(), convert.WithOutputDir(s.dir))
	s.NoFileExists(filepath.Join(s.dir, "test.png"))
}

func (s *AttachmentSuite) TestImagesDisabledNotSaved() {
	res := s.convert(input.FromBytes(test.EMLWithImages()), convert.WithoutImages(),
		convert.WithSaveAttachments(), convert.WithReferencedImages(), convert.WithOutputDir(s.dir))
	s.NoFileExists(filepath.Join(s.dir, "test.png"))
	s.NotContains(res.Output, "<img")
}

func (s *AttachmentSuite) TestDefaultDirIsInputDir() {
	inDir := filepath.Join(s.dir, "mail")
	s.Require().NoError(os.Mkdir(inDir, 0755))
	path := filepath.Join(inDir, "message.eml")
	s.Require().NoError(os.WriteFile(path, test.EMLWithAttachments(), 0644))

	s.convert(input.FromPath(path), convert.WithSaveAttachments())
	s.FileExists(filepath.Join(inDir, "document.pdf"))
}

func (s *AttachmentSuite) TestDefaultDirForBytesIsWorkDir() {
	o, err := convert.NewOptions(convert.WithSaveAttachments())
	s.Require().NoError(err)
	c := convert.New()
	c.WorkDir = s.dir
	_, err = c.HTML(input.FromBytes(test.EMLWithAttachments()), o)
	s.Require().NoError(err)
	s.FileExists(filepath.Join(s.dir, "document.pdf"))
}

func (s *AttachmentSuite) TestDefaultDirForStdinIsCwd() {
	wd, err := os.Getwd()
	s.Require().NoError(err)
	s.Require().NoError(os.Chdir(s.dir))
	s.T().Cleanup(func() { _ = os.Chdir(wd) })
	o, err := convert.NewOptions(convert.WithSaveAttachments())
	s.Require().NoError(err)
	c := convert.New()
	c.Resolver = &input.Resolver{Stdin: bytes.NewReader(test.EMLWithAttachments())}
	_, err = c.HTML(input.FromStdin(), o)
	s.Require().NoError(err)
	s.FileExists(filepath.Join(s.dir, "document.pdf"))
}

func (s *AttachmentSuite) TestExtensionMismatch() {
	path := filepath.Join(s.dir, "message.msg")
	s.Require().NoError(os.WriteFile(path, test.SimpleEML(), 0644))
	res := s.convert(input.FromPath(path))
	s.Equal(format.EML, res.Format)
	s.Require().Len(res.Warnings, 1)
	s.Equal(input.WarnExtensionMismatch, res.Warnings[0].Kind)
	s.Contains(res.Output, "Hello World")
}

func (s *AttachmentSuite) TestWriteFailure() {
	blocker := filepath.Join(s.dir, "file")
	s.Require().NoError(os.WriteFile(blocker, nil, 0644))
	o, err := convert.NewOptions(convert.WithSaveAttachments(), convert.WithOutputDir(blocker))
	s.Require().NoError(err)
	_, err = convert.ToHTML(input.FromBytes(test.EMLWithAttachments()), o)
	var werr *attach.WriteError
	s.Require().ErrorAs(err, &werr)
}
