package media

// DemoProvider returns an offline provider with a small fixed set of conversations.
// It lets the filesystem be mounted and inspected without Telegram credentials.
func DemoProvider() *MemoryProvider {
	return NewMemoryProvider(0,
		MemoryConversation{
			ID:   1001,
			Name: "Saved Messages",
			Messages: []MemoryMessage{
				{ID: 1, Media: &MemoryMedia{Kind: KindDocument, MimeType: "text/plain", Content: []byte("shopping list\n- milk\n- bread\n")}},
				{ID: 2},
				{ID: 3, Media: &MemoryMedia{Kind: KindDocument, MimeType: "application/json", Content: []byte(`{"demo":true}` + "\n")}},
			},
		},
		MemoryConversation{
			ID:   1002,
			Name: "Alice",
			Messages: []MemoryMessage{
				{ID: 10, Media: &MemoryMedia{Kind: KindPhoto, Content: demoJPEG}},
				{ID: 11, Media: &MemoryMedia{Kind: KindContact, Content: []byte("BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Bob Example\r\nTEL:+15550100\r\nEND:VCARD\r\n")}},
				{ID: 12, Media: &MemoryMedia{Kind: KindSticker, MimeType: "image/webp", Content: []byte("RIFF\x1a\x00\x00\x00WEBPVP8 ")}},
			},
		},
		MemoryConversation{
			ID:       1003,
			Name:     "Text only",
			Messages: []MemoryMessage{{ID: 20}, {ID: 21}},
		},
	)
}

// demoJPEG is the header of a baseline JFIF image, enough for MIME sniffing.
var demoJPEG = []byte{
	0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01,
	0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xff, 0xd9,
}
