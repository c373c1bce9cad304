package service

import (
	"context"
	"encoding/json"
	"log"

	"capec-chatbot-be/internal/dto"
	"capec-chatbot-be/internal/entity"
	"capec-chatbot-be/internal/repository/contract"
	"capec-chatbot-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	repo              contract.PassageEmbeddingRepository
	embeddingProvider embedding.EmbeddingProvider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	repo contract.PassageEmbeddingRepository,
	embeddingProvider embedding.EmbeddingProvider,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		repo:              repo,
		embeddingProvider: embeddingProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EmbedPassageMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal passage message: %v", err)
		msg.Ack() // malformed messages are unrecoverable, do not retry
		return
	}

	res, err := cs.embeddingProvider.Generate(payload.Text, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Printf("[ERROR] Failed to embed chunk %d of %s: %v", payload.ChunkIndex, payload.SourceFile, err)
		msg.Nack()
		return
	}

	err = cs.repo.Create(ctx, &entity.PassageEmbedding{
		SourceFile:     payload.SourceFile,
		ChunkIndex:     payload.ChunkIndex,
		Document:       payload.Text,
		EmbeddingValue: res.Embedding.Values,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to store chunk %d of %s: %v", payload.ChunkIndex, payload.SourceFile, err)
		msg.Nack()
		return
	}

	msg.Ack()
}
