// Package extract turns uploaded files into plain text.
//
// The format is chosen from the lowercase extension of the original
// filename (not the temporary path the upload was saved under):
//
//   - .pdf: text of every non-empty page, one page per paragraph
//   - .docx: paragraph text from word/document.xml
//   - anything else: the file read as UTF-8, invalid sequences dropped
package extract
