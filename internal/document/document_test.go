package document

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/ofxkit/internal/aggregate"
	"github.com/zjrosen/ofxkit/internal/header"
	"github.com/zjrosen/ofxkit/internal/models"
	"github.com/zjrosen/ofxkit/internal/tagtree"
)

func read(t *testing.T, name string) *Document {
	t.Helper()
	doc, err := ReadFile(context.Background(), filepath.Join("testdata", name))
	require.NoError(t, err)
	return doc
}

func TestReadFile_SGML(t *testing.T) {
	doc := read(t, "bank_v1.ofx")
	assert.Equal(t, 102, doc.Header.Version)
	assert.Equal(t, tagtree.SGML, doc.Format())
	assert.Equal(t, "OFX", doc.Body.Tag)
	assert.Len(t, doc.Digest, 64)

	ofx, err := doc.Decode(context.Background(), models.Registry(), nil)
	require.NoError(t, err)
	txs, err := models.TransactionsOf(ofx.Sub("bankmsgsrsv1").At(0).Sub("stmtrs").Sub("banktranlist"))
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestReadFile_XML(t *testing.T) {
	doc := read(t, "invest_v2.ofx")
	assert.Equal(t, 220, doc.Header.Version)
	assert.Equal(t, tagtree.XML, doc.Format())

	ofx, err := doc.Decode(context.Background(), models.Registry(), nil)
	require.NoError(t, err)
	list := ofx.Sub("invstmtmsgsrsv1").At(0).Sub("invstmtrs").Sub("invtranlist")
	require.Equal(t, 2, list.Len())
	assert.Equal(t, "BUYSTOCK", list.At(0).Kind())

	sonrs, err := models.SignonResponseOf(ofx.Sub("signonmsgsrsv1").Sub("sonrs"))
	require.NoError(t, err)
	assert.Equal(t, 17, sonrs.DTServer.Hour())
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(context.Background(), filepath.Join("testdata", "missing.ofx"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Parse(context.Background(), []byte("<OFX></OFX>"))
	require.ErrorIs(t, err, header.ErrMalformed)

	doc := read(t, "broken_v1.ofx")
	_, err = doc.Decode(context.Background(), models.Registry(), nil)
	require.ErrorIs(t, err, aggregate.ErrMissingRequired)
}

func TestParse_MaxDepth(t *testing.T) {
	body := strings.Repeat("<A>", 10) + "<B>x" + strings.Repeat("</A>", 10)
	data := header.NewV1(102).String() + body
	_, err := Parse(context.Background(), []byte(data), WithMaxDepth(4))
	require.Error(t, err)
}

func TestDigest_Stable(t *testing.T) {
	a := Digest([]byte("abc"))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", a)
	assert.NotEqual(t, a, Digest([]byte("abd")))
}

func TestWrite_RoundTripsBothDialects(t *testing.T) {
	for _, name := range []string{"bank_v1.ofx", "invest_v2.ofx"} {
		t.Run(name, func(t *testing.T) {
			doc := read(t, name)
			want, err := doc.Decode(context.Background(), models.Registry(), nil)
			require.NoError(t, err)

			for _, f := range []tagtree.Format{tagtree.SGML, tagtree.XML} {
				enc, err := Encode(context.Background(), want, doc.Header, nil)
				require.NoError(t, err)
				out, err := enc.Convert(f, false).Bytes("  ")
				require.NoError(t, err)

				back, err := Parse(context.Background(), out)
				require.NoError(t, err)
				assert.Equal(t, f, back.Format())
				got, err := back.Decode(context.Background(), models.Registry(), nil)
				require.NoError(t, err)
				assert.True(t, got.Equal(want), "%s as %s differs", name, f)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	doc := read(t, "bank_v1.ofx")

	xml := doc.Convert(tagtree.XML, true)
	assert.Equal(t, LatestXMLVersion, xml.Header.Version)
	assert.NotEqual(t, header.None, xml.Header.NewFileUID)
	assert.Equal(t, header.None, xml.Header.OldFileUID)
	assert.Equal(t, 102, doc.Header.Version, "source header untouched")

	same := doc.Convert(tagtree.SGML, false)
	assert.Equal(t, doc.Header, same.Header)
	assert.True(t, same.Body.Equal(doc.Body))

	back := xml.Convert(tagtree.SGML, false)
	assert.Equal(t, LatestSGMLVersion, back.Header.Version)
	assert.Equal(t, xml.Header.NewFileUID, back.Header.NewFileUID)

	var buf bytes.Buffer
	require.NoError(t, xml.Write(&buf, ""))
	assert.True(t, strings.HasPrefix(buf.String(), "<?xml"))
}

func TestWrite_RejectsInvalidHeader(t *testing.T) {
	doc := &Document{Header: header.Header{Version: 999}, Body: tagtree.Leaf("X", "1")}
	var buf bytes.Buffer
	require.ErrorIs(t, doc.Write(&buf, ""), header.ErrMalformed)
	assert.Zero(t, buf.Len())
}
