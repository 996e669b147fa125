package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Provider --dir ../domain/match --output domain/match --outpkg matchmock --filename provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Sender --dir ../domain/notification --output domain/notification --outpkg notificationmock --filename sender_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Registry --dir ../domain/subscriber --output domain/subscriber --outpkg subscribermock --filename registry_mock.go
