package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ServiceName gRPC 服務全名
const ServiceName = "bank.v1.BankService"

// BankServiceServer 伺服器端介面，每個方法對應 CoreUseCase 的一個操作
type BankServiceServer interface {
	CreateCustomer(context.Context, *CreateCustomerRequest) (*emptypb.Empty, error)
	GetCustomer(context.Context, *CustomerRequest) (*CustomerResponse, error)
	ListCustomers(context.Context, *emptypb.Empty) (*ListCustomersResponse, error)
	FindCustomerIndex(context.Context, *CustomerRequest) (*IndexResponse, error)
	GetCustomerByIndex(context.Context, *IndexRequest) (*CustomerResponse, error)
	RenameCustomer(context.Context, *RenameCustomerRequest) (*RenameCustomerResponse, error)
	DeleteCustomer(context.Context, *CustomerRequest) (*DeleteCustomerResponse, error)
	CreateSavingsAccount(context.Context, *OpenAccountRequest) (*AccountIDResponse, error)
	CreateCreditAccount(context.Context, *OpenAccountRequest) (*AccountIDResponse, error)
	Deposit(context.Context, *AmountRequest) (*AccountResponse, error)
	Withdraw(context.Context, *AmountRequest) (*AccountResponse, error)
	CloseAccount(context.Context, *AccountRequest) (*ClosingResponse, error)
	GetAccount(context.Context, *AccountRequest) (*AccountResponse, error)
	GetTransactions(context.Context, *AccountRequest) (*TransactionsResponse, error)
	GetAccountIDByIndex(context.Context, *AccountIndexRequest) (*AccountIDResponse, error)
	Checkpoint(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// unary 產生一個 MethodDesc，解碼請求後呼叫 BankServiceServer 的對應方法
func unary[Req, Resp any](name string, call func(BankServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BankServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BankServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// BankServiceDesc 手動註冊的服務描述，訊息以 JSON codec 編碼
var BankServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BankServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateCustomer", BankServiceServer.CreateCustomer),
		unary("GetCustomer", BankServiceServer.GetCustomer),
		unary("ListCustomers", BankServiceServer.ListCustomers),
		unary("FindCustomerIndex", BankServiceServer.FindCustomerIndex),
		unary("GetCustomerByIndex", BankServiceServer.GetCustomerByIndex),
		unary("RenameCustomer", BankServiceServer.RenameCustomer),
		unary("DeleteCustomer", BankServiceServer.DeleteCustomer),
		unary("CreateSavingsAccount", BankServiceServer.CreateSavingsAccount),
		unary("CreateCreditAccount", BankServiceServer.CreateCreditAccount),
		unary("Deposit", BankServiceServer.Deposit),
		unary("Withdraw", BankServiceServer.Withdraw),
		unary("CloseAccount", BankServiceServer.CloseAccount),
		unary("GetAccount", BankServiceServer.GetAccount),
		unary("GetTransactions", BankServiceServer.GetTransactions),
		unary("GetAccountIDByIndex", BankServiceServer.GetAccountIDByIndex),
		unary("Checkpoint", BankServiceServer.Checkpoint),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterBankServiceServer 將實作註冊到 gRPC Server
func RegisterBankServiceServer(s grpc.ServiceRegistrar, srv BankServiceServer) {
	s.RegisterService(&BankServiceDesc, srv)
}
