package chat_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/smarttype/smarttender/pkg/chat"
)

var _ = Describe("Conversation", func() {
	Describe("NewConversation", func() {
		It("should create an empty conversation with identity and timestamps", func() {
			conv := chat.NewConversation("user-1")

			Expect(conv.ID).ToNot(BeEmpty())
			Expect(conv.Title).To(Equal(chat.DefaultTitle))
			Expect(conv.Owner).To(Equal("user-1"))
			Expect(chat.IsEmpty(conv)).To(BeTrue())
			Expect(conv.CreatedAt).To(Equal(conv.UpdatedAt))
		})

		It("should assign distinct ids", func() {
			a := chat.NewConversation("user-1")
			b := chat.NewConversation("user-1")

			Expect(a.ID).ToNot(Equal(b.ID))
		})
	})

	Describe("AddMessage", func() {
		It("should append immutably", func() {
			original := chat.NewConversation("user-1")

			updated := chat.AddMessage(original, chat.NewUserMessage("Hello"))

			Expect(chat.GetMessageCount(original)).To(Equal(0))
			Expect(chat.GetMessageCount(updated)).To(Equal(1))
		})

		It("should preserve append order", func() {
			conv := chat.NewConversation("user-1")
			conv = chat.AddMessage(conv, chat.NewUserMessage("First"))
			conv = chat.AddMessage(conv, chat.NewBotMessage("Second"))
			conv = chat.AddMessage(conv, chat.NewUserMessage("Third"))

			messages := chat.GetMessages(conv)
			Expect(messages).To(HaveLen(3))
			Expect(messages[0].Content).To(Equal("First"))
			Expect(messages[1].Content).To(Equal("Second"))
			Expect(messages[2].Content).To(Equal("Third"))
		})

		It("should refresh UpdatedAt", func() {
			conv := chat.NewConversation("user-1")
			created := conv.UpdatedAt

			conv = chat.AddMessage(conv, chat.NewUserMessage("Hello"))

			Expect(conv.UpdatedAt).To(BeTemporally(">=", created))
		})
	})

	Describe("SetMessageContent", func() {
		It("should replace content copy-on-write", func() {
			conv := chat.NewConversation("user-1")
			conv = chat.AddMessage(conv, chat.NewBotMessage("partial"))

			updated := chat.SetMessageContent(conv, 0, "complete")

			Expect(chat.GetMessages(conv)[0].Content).To(Equal("partial"))
			Expect(chat.GetMessages(updated)[0].Content).To(Equal("complete"))
		})

		It("should ignore out-of-range indices", func() {
			conv := chat.NewConversation("user-1")
			conv = chat.AddMessage(conv, chat.NewBotMessage("text"))

			updated := chat.SetMessageContent(conv, 5, "other")

			Expect(chat.GetMessages(updated)[0].Content).To(Equal("text"))
		})
	})

	Describe("GetMessages", func() {
		It("should return an isolated copy", func() {
			conv := chat.NewConversation("user-1")
			conv = chat.AddMessage(conv, chat.NewUserMessage("Hello"))

			messages := chat.GetMessages(conv)
			messages[0] = chat.NewUserMessage("Mutated")

			Expect(chat.GetMessages(conv)[0].Content).To(Equal("Hello"))
		})
	})

	Describe("GetLastBotMessage", func() {
		It("should return the most recent bot message", func() {
			conv := chat.NewConversation("user-1")
			conv = chat.AddMessage(conv, chat.NewBotMessage("first"))
			conv = chat.AddMessage(conv, chat.NewUserMessage("question"))
			conv = chat.AddMessage(conv, chat.NewBotMessage("last"))

			msg, found := chat.GetLastBotMessage(conv)
			Expect(found).To(BeTrue())
			Expect(msg.Content).To(Equal("last"))
		})

		It("should report absence", func() {
			conv := chat.NewConversation("user-1")
			conv = chat.AddMessage(conv, chat.NewUserMessage("question"))

			_, found := chat.GetLastBotMessage(conv)
			Expect(found).To(BeFalse())
		})
	})

	Describe("DeriveTitle", func() {
		It("should use the default for an empty conversation", func() {
			conv := chat.NewConversation("user-1")

			Expect(chat.DeriveTitle(conv)).To(Equal(chat.DefaultTitle))
		})

		It("should take the leading 30 characters of the first message", func() {
			conv := chat.NewConversation("user-1")
			long := strings.Repeat("a", 40)
			conv = chat.AddMessage(conv, chat.NewUserMessage(long))

			title := chat.DeriveTitle(conv)
			Expect(title).To(HaveLen(30))
			Expect(strings.HasPrefix(long, title)).To(BeTrue())
		})

		It("should keep short first messages whole", func() {
			conv := chat.NewConversation("user-1")
			conv = chat.AddMessage(conv, chat.NewUserMessage("Crane pricing"))

			Expect(chat.DeriveTitle(conv)).To(Equal("Crane pricing"))
		})

		It("should prefer an explicit title", func() {
			conv := chat.NewConversation("user-1")
			conv = chat.AddMessage(conv, chat.NewUserMessage("Hello"))
			conv = chat.WithTitle(conv, "Tender Q&A")

			Expect(chat.DeriveTitle(conv)).To(Equal("Tender Q&A"))
		})
	})
})
