package main

import (
	"github.com/jmoiron/sqlx"

	"github.com/rossosss/zvonok/repository"
)

// Repositories holds every repository instance.
type Repositories struct {
	Profile       repository.ProfileRepository
	Server        repository.ServerRepository
	Member        repository.MemberRepository
	Channel       repository.ChannelRepository
	Message       repository.MessageRepository
	Conversation  repository.ConversationRepository
	DirectMessage repository.DirectMessageRepository
}

// initRepositories builds the repositories on the shared pool. Services that
// need a transaction build tx-scoped copies themselves.
func initRepositories(conn *sqlx.DB) *Repositories {
	return &Repositories{
		Profile:       repository.NewSQLProfileRepo(conn),
		Server:        repository.NewSQLServerRepo(conn),
		Member:        repository.NewSQLMemberRepo(conn),
		Channel:       repository.NewSQLChannelRepo(conn),
		Message:       repository.NewSQLMessageRepo(conn),
		Conversation:  repository.NewSQLConversationRepo(conn),
		DirectMessage: repository.NewSQLDirectMessageRepo(conn),
	}
}
